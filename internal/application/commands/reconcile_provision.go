package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/config"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/metrics"
)

// ReconcileProvision settles a PENDING or PROVISIONING record that stopped making progress,
// typically after a process crash or a failed FAILED write.
type ReconcileProvision struct {
	cfg      *config.ProvisionConfig
	platform interfaces.PlatformClient
	liveness interfaces.LivenessChecker
	metrics  *metrics.Metrics
	writer   *statusWriter
}

func NewReconcileProvision(
	cfg *config.ProvisionConfig, repo interfaces.ProvisionRepo, platform interfaces.PlatformClient,
	checker interfaces.LivenessChecker, m *metrics.Metrics, opts ...Option,
) *ReconcileProvision {
	return &ReconcileProvision{
		cfg:      cfg,
		platform: platform,
		liveness: checker,
		metrics:  m,
		writer:   newStatusWriter(repo, cfg, opts),
	}
}

func (c *ReconcileProvision) Handle(ctx context.Context, p *entity.Provision) error {
	stale := errs.StaleProvisionError{ProvisionID: p.ID.String(), Since: p.UpdatedAt}
	if p.ApplicationID == nil {
		return c.markFailed(ctx, p, stale)
	}

	status, err := c.platform.GetStatus(ctx, *p.ApplicationID)
	if err != nil {
		return fmt.Errorf("reconcile provision %s: %w", p.ID, err)
	}
	stale.PlatformStatus = status.Status

	if p.Status == consts.ProvisionStatusProvisioning && status.Deployed() &&
		c.liveness.Check(ctx, c.cfg.SiteURL(p.Domain), c.cfg.Liveness.ProbeTimeout) {
		c.writer.note(ctx, p, fmt.Sprintf("reconciled: platform reports %s and the site answers", status.Status))
		if err = c.writer.transition(ctx, p, consts.ProvisionStatusActive); err != nil {
			return err
		}
		c.metrics.ObserveReconciled(string(consts.ProvisionStatusActive))
		return nil
	}
	return c.markFailed(ctx, p, stale)
}

func (c *ReconcileProvision) markFailed(ctx context.Context, p *entity.Provision, cause errs.StaleProvisionError) error {
	err := c.writer.fail(ctx, p, cause)
	var conflict errs.ConflictError
	if errors.As(err, &conflict) {
		slog.Info("stale provision changed concurrently, left as is", "provision_id", p.ID, "tenant_id", p.TenantID)
		return nil
	}
	var rec errs.ReconciliationRequiredError
	if errors.As(err, &rec) {
		return err
	}
	slog.Info("stale provision failed", "provision_id", p.ID, "tenant_id", p.TenantID, "platform_status", cause.PlatformStatus)
	c.metrics.ObserveReconciled(string(consts.ProvisionStatusFailed))
	return nil
}
