package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/spf13/cobra"
)

const (
	storePostgres = "postgres"
	storeMemory   = "memory"
)

type globalOptions struct {
	store    string
	logLevel string
}

// Root returns the provision command tree.
func Root() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "provision",
		Short:         "Provision dedicated shop websites on the deployment platform",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.store != storePostgres && opts.store != storeMemory {
				return errs.ValidationError{Field: "store", Err: fmt.Errorf("unknown store %q", opts.store)}
			}
			var level slog.Level
			if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
				return errs.ValidationError{Field: "log-level", Err: err}
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.store, "store", storePostgres, "Provision store: postgres or memory")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	cmd.AddCommand(createCmd(opts))
	cmd.AddCommand(cancelCmd(opts))
	cmd.AddCommand(statusCmd(opts))
	cmd.AddCommand(credentialsCmd(opts))
	cmd.AddCommand(serveCmd(opts))
	cmd.AddCommand(migrateCmd(opts))

	return cmd
}

// Execute runs the CLI and exits non-zero with "<Kind>: <message>" on failure.
func Execute() {
	if err := Root().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", errs.Kind(err), err)
		os.Exit(1)
	}
}
