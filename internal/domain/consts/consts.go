package consts

type ProvisionStatus string

const (
	ProvisionStatusPending      ProvisionStatus = "PENDING"
	ProvisionStatusProvisioning ProvisionStatus = "PROVISIONING"
	ProvisionStatusActive       ProvisionStatus = "ACTIVE"
	ProvisionStatusFailed       ProvisionStatus = "FAILED"
	ProvisionStatusCancelled    ProvisionStatus = "CANCELLED"
)

// NonTerminalStatuses are the statuses that count against the one-provision-per-tenant limit.
var NonTerminalStatuses = []ProvisionStatus{
	ProvisionStatusPending,
	ProvisionStatusProvisioning,
	ProvisionStatusActive,
}

func (s ProvisionStatus) IsNonTerminal() bool {
	for _, st := range NonTerminalStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type Framework string

const (
	FrameworkContentManagement Framework = "content-management"
	FrameworkHeadless          Framework = "headless"
	FrameworkStaticSite        Framework = "static-site"
	FrameworkCustom            Framework = "custom"
)

var Frameworks = []Framework{FrameworkContentManagement, FrameworkHeadless, FrameworkStaticSite, FrameworkCustom}

func (f Framework) Valid() bool {
	for _, v := range Frameworks {
		if f == v {
			return true
		}
	}
	return false
}

type SiteType string

const (
	SiteTypeStorefront  SiteType = "storefront"
	SiteTypeBlog        SiteType = "blog"
	SiteTypePortfolio   SiteType = "portfolio"
	SiteTypeLandingPage SiteType = "landing-page"
	SiteTypeBusiness    SiteType = "business"
	SiteTypeCustom      SiteType = "custom"
)

var SiteTypes = []SiteType{SiteTypeStorefront, SiteTypeBlog, SiteTypePortfolio, SiteTypeLandingPage, SiteTypeBusiness, SiteTypeCustom}

func (s SiteType) Valid() bool {
	for _, v := range SiteTypes {
		if s == v {
			return true
		}
	}
	return false
}

// CredentialsReturnedOnce marks records whose credentials were only handed to the caller.
const CredentialsReturnedOnce = "returned-once"
