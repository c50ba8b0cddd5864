package entity

import (
	"fmt"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/google/uuid"
)

type Provision struct {
	ID             uuid.UUID
	TenantID       string
	RequestedBy    string
	Framework      consts.Framework
	SiteType       consts.SiteType
	Status         consts.ProvisionStatus
	Domain         string
	ProjectID      *string
	ApplicationID  *string
	ServerID       *string
	AdminUsername  string
	CredentialsRef string
	ErrorKind      *string
	ErrorMessage   *string
	// PublicError is ErrorMessage with platform response bodies removed.
	PublicError *string
	IsTest      bool
	Notes       []Note
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Note struct {
	Message   string
	CreatedAt time.Time
}

var transitions = map[consts.ProvisionStatus][]consts.ProvisionStatus{
	consts.ProvisionStatusPending:      {consts.ProvisionStatusProvisioning, consts.ProvisionStatusFailed, consts.ProvisionStatusCancelled},
	consts.ProvisionStatusProvisioning: {consts.ProvisionStatusActive, consts.ProvisionStatusFailed},
	consts.ProvisionStatusActive:       {consts.ProvisionStatusCancelled},
}

// CanTransition reports whether from -> to is an edge of the provision state machine.
// PENDING -> CANCELLED covers records that never reached the platform.
func CanTransition(from, to consts.ProvisionStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func NewProvision(id uuid.UUID, tenantID, requestedBy string, framework consts.Framework, siteType consts.SiteType, domain string, now time.Time) *Provision {
	return &Provision{
		ID:          id,
		TenantID:    tenantID,
		RequestedBy: requestedBy,
		Framework:   framework,
		SiteType:    siteType,
		Status:      consts.ProvisionStatusPending,
		Domain:      domain,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Transition moves the provision to status to, or fails without mutating it.
func (p *Provision) Transition(to consts.ProvisionStatus, now time.Time) error {
	if !CanTransition(p.Status, to) {
		return fmt.Errorf("illegal provision transition %s -> %s", p.Status, to)
	}
	p.Status = to
	p.UpdatedAt = now
	return nil
}

// Fail records the cause and moves to FAILED.
func (p *Provision) Fail(kind, message string, now time.Time) error {
	if err := p.Transition(consts.ProvisionStatusFailed, now); err != nil {
		return err
	}
	p.ErrorKind = &kind
	p.ErrorMessage = &message
	return nil
}

func (p *Provision) HasPlatformResources() bool {
	return p.ProjectID != nil || p.ApplicationID != nil
}

func (p *Provision) AddNote(message string, now time.Time) Note {
	n := Note{Message: message, CreatedAt: now}
	p.Notes = append(p.Notes, n)
	return n
}
