package db

import (
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
)

func MapProvisionToModel(p *entity.Provision) Provision {
	return Provision{
		ID:             p.ID,
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
		PublicError:    p.PublicError,
		IsTest:         p.IsTest,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func MapModelToProvision(m Provision, notes []ProvisionNote) *entity.Provision {
	p := &entity.Provision{
		ID:             m.ID,
		TenantID:       m.TenantID,
		RequestedBy:    m.RequestedBy,
		Framework:      consts.Framework(m.Framework),
		SiteType:       consts.SiteType(m.SiteType),
		Status:         consts.ProvisionStatus(m.Status),
		Domain:         m.Domain,
		ProjectID:      m.ProjectID,
		ApplicationID:  m.ApplicationID,
		ServerID:       m.ServerID,
		AdminUsername:  m.AdminUsername,
		CredentialsRef: m.CredentialsRef,
		ErrorKind:      m.ErrorKind,
		ErrorMessage:   m.ErrorMessage,
		PublicError:    m.PublicError,
		IsTest:         m.IsTest,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for _, n := range notes {
		p.Notes = append(p.Notes, entity.Note{Message: n.Message, CreatedAt: n.CreatedAt})
	}
	return p
}

// StatusStrings converts statuses for ANY($n) parameters.
func StatusStrings(statuses []consts.ProvisionStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
