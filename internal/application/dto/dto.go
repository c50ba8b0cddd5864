package dto

import (
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/credentials"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
)

// CreateProvisionResult carries the only copy of the generated credentials the caller gets.
type CreateProvisionResult struct {
	Provision   *entity.Provision
	Credentials credentials.Credentials
}

type NoteResponse struct {
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type ProvisionResponse struct {
	ID             string         `json:"id"`
	TenantID       string         `json:"tenantId"`
	RequestedBy    string         `json:"requestedBy"`
	Framework      string         `json:"framework"`
	SiteType       string         `json:"siteType"`
	Status         string         `json:"status"`
	Domain         string         `json:"domain"`
	ProjectID      *string        `json:"projectId,omitempty"`
	ApplicationID  *string        `json:"applicationId,omitempty"`
	ServerID       *string        `json:"serverId,omitempty"`
	AdminUsername  string         `json:"adminUsername"`
	CredentialsRef string         `json:"credentialsRef"`
	ErrorKind      *string        `json:"errorKind,omitempty"`
	ErrorMessage   *string        `json:"errorMessage,omitempty"`
	IsTest         bool           `json:"isTest"`
	Notes          []NoteResponse `json:"notes"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

type CreateProvisionResponse struct {
	Provision   ProvisionResponse       `json:"provision"`
	Credentials credentials.Credentials `json:"credentials"`
}

type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func MapProvision(p *entity.Provision) ProvisionResponse {
	notes := make([]NoteResponse, 0, len(p.Notes))
	for _, n := range p.Notes {
		notes = append(notes, NoteResponse{Message: n.Message, CreatedAt: n.CreatedAt})
	}
	return ProvisionResponse{
		ID:             p.ID.String(),
		TenantID:       p.TenantID,
		RequestedBy:    p.RequestedBy,
		Framework:      string(p.Framework),
		SiteType:       string(p.SiteType),
		Status:         string(p.Status),
		Domain:         p.Domain,
		ProjectID:      p.ProjectID,
		ApplicationID:  p.ApplicationID,
		ServerID:       p.ServerID,
		AdminUsername:  p.AdminUsername,
		CredentialsRef: p.CredentialsRef,
		ErrorKind:      p.ErrorKind,
		ErrorMessage:   p.ErrorMessage,
		IsTest:         p.IsTest,
		Notes:          notes,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// MapPublicProvision is MapProvision for callers outside the operator team: the error
// message never carries a raw platform response.
func MapPublicProvision(p *entity.Provision) ProvisionResponse {
	resp := MapProvision(p)
	switch {
	case p.PublicError != nil:
		resp.ErrorMessage = p.PublicError
	case p.ErrorKind != nil && *p.ErrorKind == errs.KindPlatform:
		msg := "deployment platform request failed"
		resp.ErrorMessage = &msg
	}
	return resp
}

func MapCreateProvision(r *CreateProvisionResult) CreateProvisionResponse {
	return CreateProvisionResponse{Provision: MapProvision(r.Provision), Credentials: r.Credentials}
}

func MapPublicCreateProvision(r *CreateProvisionResult) CreateProvisionResponse {
	return CreateProvisionResponse{Provision: MapPublicProvision(r.Provision), Credentials: r.Credentials}
}

func MapProvisionRequest(r CreateProvisionRequest) entity.ProvisionRequest {
	req := entity.ProvisionRequest{
		TenantID:     r.TenantId,
		RequestedBy:  r.RequestedBy,
		Framework:    consts.Framework(r.Framework),
		SiteType:     consts.SiteType(r.SiteType),
		BusinessName: r.BusinessName,
		ContactEmail: string(r.ContactEmail),
		ContactPhone: r.ContactPhone,
		Address:      r.Address,
		LogoURL:      r.LogoUrl,
		CoverURL:     r.CoverUrl,
		Theme:        r.Theme,
		Image:        r.Image,
		Notes:        r.Notes,
	}
	if r.CustomDomain != nil && *r.CustomDomain != "" {
		req.HasCustomDomain = true
		req.CustomDomain = *r.CustomDomain
	}
	if r.Subdomain != nil {
		req.Subdomain = *r.Subdomain
	}
	if r.SocialLinks != nil {
		req.SocialLinks = *r.SocialLinks
	}
	if r.Plugins != nil {
		req.Plugins = *r.Plugins
	}
	if r.IsTest != nil {
		req.IsTest = *r.IsTest
	}
	if r.Resources != nil {
		req.Resources = &entity.ResourceLimits{}
		if r.Resources.Cpu != nil {
			req.Resources.CPU = *r.Resources.Cpu
		}
		if r.Resources.Memory != nil {
			req.Resources.Memory = *r.Resources.Memory
		}
	}
	return req
}
