package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/config"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/metrics"
	"github.com/google/uuid"
)

const (
	cleanupNone    = "none"
	cleanupDeleted = "deleted"
	cleanupFailed  = "failed"
)

// CancelProvision tears a site down. Platform cleanup is best-effort: its failures are kept
// in the provision notes and never block the CANCELLED transition.
type CancelProvision struct {
	repo     interfaces.ProvisionRepo
	platform interfaces.PlatformClient
	vault    interfaces.CredentialVault
	metrics  *metrics.Metrics
	writer   *statusWriter
}

func NewCancelProvision(
	cfg *config.ProvisionConfig, repo interfaces.ProvisionRepo, platform interfaces.PlatformClient,
	vault interfaces.CredentialVault, m *metrics.Metrics, opts ...Option,
) *CancelProvision {
	return &CancelProvision{
		repo:     repo,
		platform: platform,
		vault:    vault,
		metrics:  m,
		writer:   newStatusWriter(repo, cfg, opts),
	}
}

func (c *CancelProvision) Handle(ctx context.Context, id uuid.UUID) (*entity.Provision, error) {
	p, err := c.repo.GetProvisionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == consts.ProvisionStatusCancelled {
		return p, nil
	}
	if !entity.CanTransition(p.Status, consts.ProvisionStatusCancelled) {
		return nil, errs.ConflictError{TenantID: p.TenantID, Err: fmt.Errorf("provision %s is %s and cannot be cancelled", p.ID, p.Status)}
	}

	cleanup := cleanupNone
	if p.ApplicationID != nil {
		if err = c.platform.DeleteApplication(ctx, *p.ApplicationID); err != nil {
			slog.Warn("delete application failed during cancel", "provision_id", p.ID, "application_id", *p.ApplicationID, "err", err)
			c.writer.note(ctx, p, fmt.Sprintf("cancel: delete application %s failed: %s", *p.ApplicationID, errs.PublicMessage(err)))
			cleanup = cleanupFailed
		} else {
			c.writer.note(ctx, p, fmt.Sprintf("cancel: deleted application %s", *p.ApplicationID))
			cleanup = cleanupDeleted
		}
	}
	if p.ProjectID != nil {
		c.writer.note(ctx, p, fmt.Sprintf("cancel: project %s left on the platform", *p.ProjectID))
	}
	if c.vault != nil && p.CredentialsRef != "" && p.CredentialsRef != consts.CredentialsReturnedOnce {
		if err = c.vault.Delete(ctx, p.CredentialsRef); err != nil {
			slog.Warn("delete stored credentials failed during cancel", "provision_id", p.ID, "err", err)
			c.writer.note(ctx, p, fmt.Sprintf("cancel: delete stored credentials failed: %v", err))
		}
	}

	if err = c.writer.transition(ctx, p, consts.ProvisionStatusCancelled); err != nil {
		return nil, err
	}
	c.metrics.ObserveCancellation(cleanup)
	return p, nil
}
