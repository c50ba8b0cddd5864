package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/dto"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type createFlags struct {
	domain       string
	subdomain    string
	businessName string
	email        string
	phone        string
	address      string
	logo         string
	cover        string
	social       map[string]string
	plugins      []string
	theme        string
	image        string
	cpu          string
	memory       string
	notes        string
	requestedBy  string
	test         bool
}

func (f *createFlags) request(tenantID, framework, siteType string) entity.ProvisionRequest {
	req := entity.ProvisionRequest{
		TenantID:        tenantID,
		RequestedBy:     f.requestedBy,
		Framework:       consts.Framework(framework),
		SiteType:        consts.SiteType(siteType),
		BusinessName:    f.businessName,
		ContactEmail:    f.email,
		ContactPhone:    optional(f.phone),
		Address:         optional(f.address),
		LogoURL:         optional(f.logo),
		CoverURL:        optional(f.cover),
		SocialLinks:     f.social,
		HasCustomDomain: f.domain != "",
		CustomDomain:    f.domain,
		Subdomain:       f.subdomain,
		Plugins:         f.plugins,
		Theme:           optional(f.theme),
		Image:           optional(f.image),
		Notes:           optional(f.notes),
		IsTest:          f.test,
	}
	if f.cpu != "" || f.memory != "" {
		req.Resources = &entity.ResourceLimits{CPU: f.cpu, Memory: f.memory}
	}
	return req
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func createCmd(opts *globalOptions) *cobra.Command {
	f := &createFlags{}

	cmd := &cobra.Command{
		Use:   "create <tenant-id> <framework> <site-type>",
		Short: "Provision a site for a tenant and wait until it is reachable",
		Long: `Create runs one provisioning attempt: it registers the site, creates the
project and application on the deployment platform, deploys it and waits for the
public domain to answer.

Generated credentials are printed once in the output and are not shown again.

Frameworks: content-management, headless, static-site, custom.
Site types: storefront, blog, portfolio, landing-page, business, custom.

Example:
  provision create t-42 content-management storefront \
    --subdomain janes-pottery --business-name "Jane's Pottery" --email jane@example.com`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := Init(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Handlers.CreateProvision.Handle(ctx, f.request(args[0], args[1], args[2]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.MapCreateProvision(result))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.domain, "domain", "", "Custom domain owned by the tenant")
	flags.StringVar(&f.subdomain, "subdomain", "", "Subdomain under the platform base domain")
	flags.StringVar(&f.businessName, "business-name", "", "Business name shown on the site (required)")
	flags.StringVar(&f.email, "email", "", "Contact email, also used for the admin account (required)")
	flags.StringVar(&f.phone, "phone", "", "Contact phone")
	flags.StringVar(&f.address, "address", "", "Business address")
	flags.StringVar(&f.logo, "logo", "", "Logo URL")
	flags.StringVar(&f.cover, "cover", "", "Cover image URL")
	flags.StringToStringVar(&f.social, "social", nil, "Social links as network=url")
	flags.StringSliceVar(&f.plugins, "plugin", nil, "Plugin slug, repeatable; replaces the site type defaults")
	flags.StringVar(&f.theme, "theme", "", "Theme slug")
	flags.StringVar(&f.image, "image", "", "Container image, required for the custom framework")
	flags.StringVar(&f.cpu, "cpu", "", "CPU limit, e.g. 1 or 0.5")
	flags.StringVar(&f.memory, "memory", "", "Memory limit, e.g. 1024M")
	flags.StringVar(&f.notes, "notes", "", "Free-form note stored on the record")
	flags.StringVar(&f.requestedBy, "requested-by", os.Getenv("USER"), "Operator or user requesting the site")
	flags.BoolVar(&f.test, "test", false, "Mark the provision as a test site")
	cmd.MarkFlagsMutuallyExclusive("domain", "subdomain")
	cmd.MarkFlagsOneRequired("domain", "subdomain")
	_ = cmd.MarkFlagRequired("business-name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func cancelCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a provision and remove its application from the platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvisionID(cmd, opts, args[0], func(ctx context.Context, app *App, id uuid.UUID) (any, error) {
				p, err := app.Handlers.CancelProvision.Handle(ctx, id)
				if err != nil {
					return nil, err
				}
				return dto.MapProvision(p), nil
			})
		},
	}
}

func statusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show a provision record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvisionID(cmd, opts, args[0], func(ctx context.Context, app *App, id uuid.UUID) (any, error) {
				p, err := app.Handlers.GetProvision.Query(ctx, id)
				if err != nil {
					return nil, err
				}
				return dto.MapProvision(p), nil
			})
		},
	}
}

func credentialsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "credentials <id>",
		Short: "Read back credentials kept in the credential vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProvisionID(cmd, opts, args[0], func(ctx context.Context, app *App, id uuid.UUID) (any, error) {
				creds, err := app.Handlers.GetCredentials.Query(ctx, id)
				if err != nil {
					return nil, err
				}
				return creds, nil
			})
		},
	}
}

func withProvisionID(cmd *cobra.Command, opts *globalOptions, raw string, run func(context.Context, *App, uuid.UUID) (any, error)) error {
	id, err := uuid.Parse(raw)
	if err != nil {
		return errs.ValidationError{Field: "id", Err: err}
	}

	app, err := Init(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer app.Close()

	out, err := run(cmd.Context(), app, id)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
