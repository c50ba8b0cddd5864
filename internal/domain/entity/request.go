package entity

import "github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"

// ProvisionRequest is consumed within a single Create call and never persisted.
// Tenant profile fields are optional because the tenant data source may not have them.
type ProvisionRequest struct {
	TenantID        string
	RequestedBy     string
	Framework       consts.Framework
	SiteType        consts.SiteType
	BusinessName    string
	ContactEmail    string
	ContactPhone    *string
	Address         *string
	LogoURL         *string
	CoverURL        *string
	SocialLinks     map[string]string
	HasCustomDomain bool
	CustomDomain    string
	Subdomain       string
	Resources       *ResourceLimits
	Plugins         []string
	Theme           *string
	Image           *string
	Notes           *string
	IsTest          bool
}

type ResourceLimits struct {
	CPU    string
	Memory string
}
