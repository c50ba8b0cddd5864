package manifest_test

import (
	"testing"

	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/credentials"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/manifest"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var fixedCreds = credentials.Credentials{
	AdminUsername:    "admin_abc123",
	AdminPassword:    "Pa55wordPa55wordPa55word",
	DatabasePassword: "DbPa55wordDbPa55wordDbPa55word12",
	AppSecret:        "SecretSecretSecretSecretSecretSecretSecretSecret",
}

func storefrontRequest() entity.ProvisionRequest {
	phone := "+1 555 0100"
	return entity.ProvisionRequest{
		TenantID:     "t1",
		RequestedBy:  "u1",
		Framework:    consts.FrameworkContentManagement,
		SiteType:     consts.SiteTypeStorefront,
		BusinessName: "Jane's Pottery",
		ContactEmail: "jane@example.com",
		ContactPhone: &phone,
		SocialLinks:  map[string]string{"instagram": "https://instagram.com/janes", "facebook": "https://fb.com/janes"},
		Subdomain:    "janes-pottery",
	}
}

func decode(t *testing.T, m manifest.Manifest) manifest.ComposeFile {
	t.Helper()
	var c manifest.ComposeFile
	require.NoError(t, yaml.Unmarshal(m.Document, &c))
	return c
}

func TestBuildIsByteIdenticalForIdenticalInputs(t *testing.T) {
	b := manifest.NewBuilder("sites.example.net", entity.ResourceLimits{})
	for _, f := range consts.Frameworks {
		req := storefrontRequest()
		req.Framework = f
		image := "ghcr.io/acme/shop:1.0"
		req.Image = &image

		first, err := b.Build(req, fixedCreds)
		require.NoError(t, err)
		second, err := b.Build(req, fixedCreds)
		require.NoError(t, err)
		require.Equal(t, string(first.Document), string(second.Document), "framework %s", f)
	}
}

func TestBuildChangingBusinessNameOnlyChangesDerivedFields(t *testing.T) {
	b := manifest.NewBuilder("sites.example.net", entity.ResourceLimits{})
	req := storefrontRequest()
	original, err := b.Build(req, fixedCreds)
	require.NoError(t, err)

	req.BusinessName = "Jane's Ceramics"
	renamed, err := b.Build(req, fixedCreds)
	require.NoError(t, err)

	require.Equal(t, original.ProjectName, renamed.ProjectName)
	require.Equal(t, original.ApplicationName, renamed.ApplicationName)
	require.Equal(t, original.Domains, renamed.Domains)

	a, c := decode(t, original), decode(t, renamed)
	require.Equal(t, len(a.Services), len(c.Services))
	for name, svc := range a.Services {
		other := c.Services[name]
		require.Equal(t, svc.Image, other.Image)
		require.Equal(t, svc.Labels, other.Labels)
		require.Equal(t, svc.Volumes, other.Volumes)
		for key, value := range svc.Environment {
			if key == "WP_TITLE" {
				require.Equal(t, "Jane's Pottery", value)
				require.Equal(t, "Jane's Ceramics", other.Environment[key])
				continue
			}
			require.Equal(t, value, other.Environment[key], "service %s env %s", name, key)
		}
	}
}

func TestBuildResolvesSubdomainAgainstBaseDomain(t *testing.T) {
	b := manifest.NewBuilder("sites.example.net.", entity.ResourceLimits{})
	m, err := b.Build(storefrontRequest(), fixedCreds)
	require.NoError(t, err)
	require.Equal(t, []string{"janes-pottery.sites.example.net"}, m.Domains)
	require.Equal(t, "tenant-t1", m.ProjectName)

	app := decode(t, m).Services["app"]
	require.Equal(t, "Host(`janes-pottery.sites.example.net`)", app.Labels["traefik.http.routers.janes-pottery-sites-example-net.rule"])
}

func TestBuildUsesCustomDomainWithWwwAlias(t *testing.T) {
	b := manifest.NewBuilder("sites.example.net", entity.ResourceLimits{})
	req := storefrontRequest()
	req.HasCustomDomain = true
	req.CustomDomain = "JanesPottery.com"
	m, err := b.Build(req, fixedCreds)
	require.NoError(t, err)
	require.Equal(t, []string{"janespottery.com", "www.janespottery.com"}, m.Domains)
}

func TestBuildSkipsAliasForWwwCustomDomain(t *testing.T) {
	b := manifest.NewBuilder("sites.example.net", entity.ResourceLimits{})
	req := storefrontRequest()
	req.HasCustomDomain = true
	req.CustomDomain = "www.janespottery.com"
	m, err := b.Build(req, fixedCreds)
	require.NoError(t, err)
	require.Equal(t, []string{"www.janespottery.com"}, m.Domains)
	require.NotContains(t, string(m.Document), "www.www.")
}

func TestBuildAppliesContentManagementDefaultsUnlessOverridden(t *testing.T) {
	b := manifest.NewBuilder("sites.example.net", entity.ResourceLimits{})
	m, err := b.Build(storefrontRequest(), fixedCreds)
	require.NoError(t, err)
	setup := decode(t, m).Services["setup"]
	require.Equal(t, "wordpress-seo,contact-form-7,wp-mail-smtp,woocommerce", setup.Environment["WP_PLUGINS"])
	require.Equal(t, manifest.StorefrontTheme, setup.Environment["WP_THEME"])
	require.Equal(t, fixedCreds.AdminUsername, setup.Environment["WP_ADMIN_USER"])

	req := storefrontRequest()
	theme := "astra"
	req.Plugins = []string{"elementor"}
	req.Theme = &theme
	m, err = b.Build(req, fixedCreds)
	require.NoError(t, err)
	setup = decode(t, m).Services["setup"]
	require.Equal(t, "elementor", setup.Environment["WP_PLUGINS"])
	require.Equal(t, "astra", setup.Environment["WP_THEME"])
}

func TestBuildKeepsDocumentStructureWhenFieldsContainYAMLDelimiters(t *testing.T) {
	b := manifest.NewBuilder("sites.example.net", entity.ResourceLimits{})
	req := storefrontRequest()
	req.Framework = consts.FrameworkStaticSite
	req.BusinessName = "evil: \"x\"\nservices:\n  pwn: {image: bad}\n# -- &anchor *ref"
	m, err := b.Build(req, fixedCreds)
	require.NoError(t, err)

	c := decode(t, m)
	require.Len(t, c.Services, 1)
	require.Equal(t, req.BusinessName, c.Services["app"].Environment["SITE_TITLE"])
}

func TestBuildAppliesResourceLimits(t *testing.T) {
	b := manifest.NewBuilder("sites.example.net", entity.ResourceLimits{CPU: "2", Memory: "2048M"})
	req := storefrontRequest()
	m, err := b.Build(req, fixedCreds)
	require.NoError(t, err)
	require.Equal(t, manifest.Limits{CPUs: "2", Memory: "2048M"}, decode(t, m).Services["app"].Deploy.Resources.Limits)

	req.Resources = &entity.ResourceLimits{Memory: "512M"}
	m, err = b.Build(req, fixedCreds)
	require.NoError(t, err)
	require.Equal(t, manifest.Limits{CPUs: "2", Memory: "512M"}, decode(t, m).Services["app"].Deploy.Resources.Limits)
}

func TestBuildCustomFrameworkRequiresImage(t *testing.T) {
	b := manifest.NewBuilder("sites.example.net", entity.ResourceLimits{})
	req := storefrontRequest()
	req.Framework = consts.FrameworkCustom
	_, err := b.Build(req, fixedCreds)
	require.Error(t, err)
}
