// Package manifest turns a provision request and freshly generated credentials into the
// compose document submitted to the deployment platform.
//
// The document is assembled as Go structs and serialized with yaml.v3, never by string
// templating, so business data containing YAML delimiters cannot change its structure.
// yaml.v3 sorts map keys, which keeps the output byte-identical for identical inputs.
package manifest

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/credentials"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"gopkg.in/yaml.v3"
)

type Manifest struct {
	ProjectName     string
	ApplicationName string
	Document        []byte
	Domains         []string
}

type ComposeFile struct {
	Services map[string]Service `yaml:"services"`
	Volumes  map[string]Volume  `yaml:"volumes,omitempty"`
	Networks map[string]Network `yaml:"networks,omitempty"`
}

type Service struct {
	Image       string            `yaml:"image"`
	Restart     string            `yaml:"restart,omitempty"`
	Command     []string          `yaml:"command,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Volumes     []string          `yaml:"volumes,omitempty"`
	DependsOn   []string          `yaml:"depends_on,omitempty"`
	Networks    []string          `yaml:"networks,omitempty"`
	Deploy      *Deploy           `yaml:"deploy,omitempty"`
}

type Deploy struct {
	Resources Resources `yaml:"resources"`
}

type Resources struct {
	Limits Limits `yaml:"limits"`
}

type Limits struct {
	CPUs   string `yaml:"cpus,omitempty"`
	Memory string `yaml:"memory,omitempty"`
}

type Volume struct {
	Driver string `yaml:"driver,omitempty"`
}

type Network struct {
	External bool `yaml:"external,omitempty"`
}

type Builder struct {
	baseDomain string
	defaults   entity.ResourceLimits
}

func NewBuilder(baseDomain string, defaults entity.ResourceLimits) *Builder {
	if defaults.CPU == "" {
		defaults.CPU = DefaultCPU
	}
	if defaults.Memory == "" {
		defaults.Memory = DefaultMemory
	}
	return &Builder{baseDomain: strings.ToLower(strings.TrimSuffix(baseDomain, ".")), defaults: defaults}
}

// ResolveDomain returns the public domain the site will be served on.
func (b *Builder) ResolveDomain(req entity.ProvisionRequest) string {
	if req.HasCustomDomain {
		return strings.ToLower(strings.TrimSuffix(req.CustomDomain, "."))
	}
	return fmt.Sprintf("%s.%s", strings.ToLower(req.Subdomain), b.baseDomain)
}

func (b *Builder) Build(req entity.ProvisionRequest, creds credentials.Credentials) (Manifest, error) {
	domain := b.ResolveDomain(req)
	domains := []string{domain}
	if req.HasCustomDomain && !strings.HasPrefix(domain, "www.") {
		domains = append(domains, "www."+domain)
	}
	appName := slug(domain)

	limits := b.defaults
	if req.Resources != nil {
		if req.Resources.CPU != "" {
			limits.CPU = req.Resources.CPU
		}
		if req.Resources.Memory != "" {
			limits.Memory = req.Resources.Memory
		}
	}

	var compose ComposeFile
	var err error
	switch req.Framework {
	case consts.FrameworkContentManagement:
		compose = contentManagement(req, creds, domain)
	case consts.FrameworkHeadless:
		compose = headless(req, creds, domain)
	case consts.FrameworkStaticSite:
		compose = staticSite(req)
	case consts.FrameworkCustom:
		compose, err = custom(req)
	default:
		err = fmt.Errorf("unsupported framework %q", req.Framework)
	}
	if err != nil {
		return Manifest{}, err
	}

	app := compose.Services[appService]
	app.Labels = routingLabels(appName, domains, servicePort(req.Framework))
	app.Labels["provisioner.tenant"] = req.TenantID
	app.Labels["provisioner.defaults-version"] = DefaultsVersion
	if req.IsTest {
		app.Labels["provisioner.test"] = "true"
	}
	app.Deploy = &Deploy{Resources: Resources{Limits: Limits{CPUs: limits.CPU, Memory: limits.Memory}}}
	compose.Services[appService] = app

	for name, svc := range compose.Services {
		svc.Networks = []string{DefaultNetwork}
		if svc.Restart == "" {
			svc.Restart = "unless-stopped"
		}
		compose.Services[name] = svc
	}
	compose.Networks = map[string]Network{DefaultNetwork: {External: true}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err = enc.Encode(compose); err != nil {
		return Manifest{}, fmt.Errorf("encoding manifest: %w", err)
	}
	if err = enc.Close(); err != nil {
		return Manifest{}, fmt.Errorf("encoding manifest: %w", err)
	}

	return Manifest{
		ProjectName:     "tenant-" + slug(req.TenantID),
		ApplicationName: appName,
		Document:        buf.Bytes(),
		Domains:         domains,
	}, nil
}

const appService = "app"

func contentManagement(req entity.ProvisionRequest, creds credentials.Credentials, domain string) ComposeFile {
	plugins := req.Plugins
	if len(plugins) == 0 {
		plugins = defaultPlugins(req.SiteType)
	}
	theme := defaultTheme(req.SiteType)
	if req.Theme != nil && *req.Theme != "" {
		theme = *req.Theme
	}

	setupEnv := profileEnv(req)
	setupEnv["WORDPRESS_DB_HOST"] = "db"
	setupEnv["WORDPRESS_DB_USER"] = "wordpress"
	setupEnv["WORDPRESS_DB_PASSWORD"] = creds.DatabasePassword
	setupEnv["WORDPRESS_DB_NAME"] = "wordpress"
	setupEnv["WP_URL"] = "https://" + domain
	setupEnv["WP_TITLE"] = req.BusinessName
	setupEnv["WP_ADMIN_USER"] = creds.AdminUsername
	setupEnv["WP_ADMIN_PASSWORD"] = creds.AdminPassword
	setupEnv["WP_ADMIN_EMAIL"] = req.ContactEmail
	setupEnv["WP_PLUGINS"] = strings.Join(plugins, ",")
	setupEnv["WP_THEME"] = theme

	return ComposeFile{
		Services: map[string]Service{
			appService: {
				Image: WordPressImage,
				Environment: map[string]string{
					"WORDPRESS_DB_HOST":     "db",
					"WORDPRESS_DB_USER":     "wordpress",
					"WORDPRESS_DB_PASSWORD": creds.DatabasePassword,
					"WORDPRESS_DB_NAME":     "wordpress",
				},
				Volumes:   []string{"wp-content:/var/www/html"},
				DependsOn: []string{"db"},
			},
			"db": {
				Image: MariaDBImage,
				Environment: map[string]string{
					"MARIADB_DATABASE":      "wordpress",
					"MARIADB_USER":          "wordpress",
					"MARIADB_PASSWORD":      creds.DatabasePassword,
					"MARIADB_ROOT_PASSWORD": creds.AppSecret,
				},
				Volumes: []string{"db-data:/var/lib/mysql"},
			},
			"setup": {
				Image:       WordPressCLIImage,
				Restart:     "no",
				Command:     []string{"/bin/sh", "-c", "wp core install --url=\"$WP_URL\" --title=\"$WP_TITLE\" --admin_user=\"$WP_ADMIN_USER\" --admin_password=\"$WP_ADMIN_PASSWORD\" --admin_email=\"$WP_ADMIN_EMAIL\" --skip-email && wp plugin install $(echo \"$WP_PLUGINS\" | tr ',' ' ') --activate && wp theme install \"$WP_THEME\" --activate"},
				Environment: setupEnv,
				Volumes:     []string{"wp-content:/var/www/html"},
				DependsOn:   []string{appService, "db"},
			},
		},
		Volumes: map[string]Volume{"wp-content": {}, "db-data": {}},
	}
}

func headless(req entity.ProvisionRequest, creds credentials.Credentials, domain string) ComposeFile {
	env := profileEnv(req)
	env["PUBLIC_URL"] = "https://" + domain
	env["PROJECT_NAME"] = req.BusinessName
	env["ADMIN_EMAIL"] = req.ContactEmail
	env["ADMIN_PASSWORD"] = creds.AdminPassword
	env["SECRET"] = creds.AppSecret
	env["DB_CLIENT"] = "pg"
	env["DB_HOST"] = "db"
	env["DB_PORT"] = "5432"
	env["DB_DATABASE"] = "directus"
	env["DB_USER"] = "directus"
	env["DB_PASSWORD"] = creds.DatabasePassword

	return ComposeFile{
		Services: map[string]Service{
			appService: {
				Image:       DirectusImage,
				Environment: env,
				Volumes:     []string{"uploads:/directus/uploads"},
				DependsOn:   []string{"db"},
			},
			"db": {
				Image: PostgresImage,
				Environment: map[string]string{
					"POSTGRES_DB":       "directus",
					"POSTGRES_USER":     "directus",
					"POSTGRES_PASSWORD": creds.DatabasePassword,
				},
				Volumes: []string{"db-data:/var/lib/postgresql/data"},
			},
		},
		Volumes: map[string]Volume{"uploads": {}, "db-data": {}},
	}
}

func staticSite(req entity.ProvisionRequest) ComposeFile {
	env := profileEnv(req)
	env["SITE_TITLE"] = req.BusinessName
	return ComposeFile{
		Services: map[string]Service{
			appService: {
				Image:       StaticSiteImage,
				Environment: env,
				Volumes:     []string{"site-content:/usr/share/nginx/html"},
			},
		},
		Volumes: map[string]Volume{"site-content": {}},
	}
}

func custom(req entity.ProvisionRequest) (ComposeFile, error) {
	if req.Image == nil || *req.Image == "" {
		return ComposeFile{}, fmt.Errorf("framework %q requires an image", consts.FrameworkCustom)
	}
	env := profileEnv(req)
	env["SITE_TITLE"] = req.BusinessName
	return ComposeFile{
		Services: map[string]Service{
			appService: {Image: *req.Image, Environment: env},
		},
	}, nil
}

// profileEnv exposes the optional tenant profile to the site containers.
func profileEnv(req entity.ProvisionRequest) map[string]string {
	env := map[string]string{
		"SITE_TYPE":     string(req.SiteType),
		"CONTACT_EMAIL": req.ContactEmail,
	}
	optional := map[string]*string{
		"CONTACT_PHONE": req.ContactPhone,
		"SITE_ADDRESS":  req.Address,
		"LOGO_URL":      req.LogoURL,
		"COVER_URL":     req.CoverURL,
	}
	for k, v := range optional {
		if v != nil && *v != "" {
			env[k] = *v
		}
	}
	keys := make([]string, 0, len(req.SocialLinks))
	for k := range req.SocialLinks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env["SOCIAL_"+strings.ToUpper(slug(k))] = req.SocialLinks[k]
	}
	return env
}

func routingLabels(name string, domains []string, port string) map[string]string {
	rules := make([]string, 0, len(domains))
	for _, d := range domains {
		rules = append(rules, fmt.Sprintf("Host(`%s`)", d))
	}
	router := "traefik.http.routers." + name
	service := "traefik.http.services." + name
	return map[string]string{
		"traefik.enable":                      "true",
		router + ".rule":                      strings.Join(rules, " || "),
		router + ".entrypoints":               DefaultEntrypoint,
		router + ".tls.certresolver":          DefaultCertResolver,
		service + ".loadbalancer.server.port": port,
	}
}

func servicePort(f consts.Framework) string {
	if f == consts.FrameworkHeadless {
		return DirectusPort
	}
	return DefaultAppPort
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
