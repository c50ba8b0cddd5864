package commands

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
)

var (
	dnsLabel = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
	cpuLimit = regexp.MustCompile(`^\d+(\.\d+)?$`)
	memLimit = regexp.MustCompile(`^\d+[KMG]$`)
)

// ValidateRequest rejects malformed requests before anything is persisted or sent.
func ValidateRequest(req entity.ProvisionRequest) error {
	if strings.TrimSpace(req.TenantID) == "" {
		return errs.ValidationError{Field: "tenantId", Err: errors.New("required")}
	}
	if strings.TrimSpace(req.RequestedBy) == "" {
		return errs.ValidationError{Field: "requestedBy", Err: errors.New("required")}
	}
	if !req.Framework.Valid() {
		return errs.ValidationError{Field: "framework", Err: fmt.Errorf("unknown framework %q", req.Framework)}
	}
	if !req.SiteType.Valid() {
		return errs.ValidationError{Field: "siteType", Err: fmt.Errorf("unknown site type %q", req.SiteType)}
	}
	if strings.TrimSpace(req.BusinessName) == "" {
		return errs.ValidationError{Field: "businessName", Err: errors.New("required")}
	}
	if addr, err := mail.ParseAddress(req.ContactEmail); err != nil || addr.Address != req.ContactEmail {
		return errs.ValidationError{Field: "contactEmail", Err: fmt.Errorf("%q is not an email address", req.ContactEmail)}
	}

	if req.HasCustomDomain {
		if req.Subdomain != "" {
			return errs.ValidationError{Field: "subdomain", Err: errors.New("cannot be combined with a custom domain")}
		}
		if !validHostname(req.CustomDomain) {
			return errs.ValidationError{Field: "customDomain", Err: fmt.Errorf("%q is not a hostname", req.CustomDomain)}
		}
	} else {
		if req.CustomDomain != "" {
			return errs.ValidationError{Field: "customDomain", Err: errors.New("set without hasCustomDomain")}
		}
		if !dnsLabel.MatchString(strings.ToLower(req.Subdomain)) {
			return errs.ValidationError{Field: "subdomain", Err: fmt.Errorf("%q is not a DNS label", req.Subdomain)}
		}
	}

	if req.Resources != nil {
		if req.Resources.CPU != "" && !cpuLimit.MatchString(req.Resources.CPU) {
			return errs.ValidationError{Field: "resources.cpu", Err: fmt.Errorf("%q is not a cpu count", req.Resources.CPU)}
		}
		if req.Resources.Memory != "" && !memLimit.MatchString(req.Resources.Memory) {
			return errs.ValidationError{Field: "resources.memory", Err: fmt.Errorf("%q is not a size like 512M", req.Resources.Memory)}
		}
	}
	for _, p := range req.Plugins {
		if !dnsLabel.MatchString(p) {
			return errs.ValidationError{Field: "plugins", Err: fmt.Errorf("%q is not a plugin slug", p)}
		}
	}
	if req.Framework == consts.FrameworkCustom && (req.Image == nil || strings.TrimSpace(*req.Image) == "") {
		return errs.ValidationError{Field: "image", Err: errors.New("required for the custom framework")}
	}
	return nil
}

// validHostname checks RFC 1123 syntax and requires at least two labels.
func validHostname(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if len(host) == 0 || len(host) > 253 {
		return false
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if !dnsLabel.MatchString(l) {
			return false
		}
	}
	return true
}
