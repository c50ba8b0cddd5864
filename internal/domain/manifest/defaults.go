package manifest

import "github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"

// DefaultsVersion is stamped on every manifest so a deployed site can be traced back
// to the framework defaults it was built with. Bump it when any value below changes.
const DefaultsVersion = "2024-10.1"

const (
	WordPressImage      = "wordpress:6.6.2-php8.2-apache"
	WordPressCLIImage   = "wordpress:cli-2.11.0-php8.2"
	MariaDBImage        = "mariadb:11.4.3"
	DirectusImage       = "directus/directus:11.1.1"
	PostgresImage       = "postgres:16.4-alpine"
	StaticSiteImage     = "nginx:1.27.2-alpine"
	DefaultAppPort      = "80"
	DirectusPort        = "8055"
	DefaultCPU          = "1"
	DefaultMemory       = "1024M"
	DefaultNetwork      = "dokploy-network"
	DefaultEntrypoint   = "websecure"
	DefaultCertResolver = "letsencrypt"
	DefaultTheme        = "twentytwentyfour"
	StorefrontTheme     = "storefront"
)

// BaselinePlugins are installed on every content-management site unless the request lists its own.
var BaselinePlugins = []string{"wordpress-seo", "contact-form-7", "wp-mail-smtp"}

// SiteTypePlugins extend BaselinePlugins per site category.
var SiteTypePlugins = map[consts.SiteType][]string{
	consts.SiteTypeStorefront: {"woocommerce"},
	consts.SiteTypeBlog:       {"jetpack"},
	consts.SiteTypePortfolio:  {"envira-gallery-lite"},
}

func defaultPlugins(siteType consts.SiteType) []string {
	plugins := append([]string{}, BaselinePlugins...)
	return append(plugins, SiteTypePlugins[siteType]...)
}

func defaultTheme(siteType consts.SiteType) string {
	if siteType == consts.SiteTypeStorefront {
		return StorefrontTheme
	}
	return DefaultTheme
}
