package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/dto"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/credentials"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/manifest"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/config"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/liveness"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/metrics"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/platform"
	"github.com/cenkalti/backoff/v4"
)

// CreateProvision runs one provisioning attempt for a tenant. Callers are expected to have
// authorized the requester already.
type CreateProvision struct {
	cfg       *config.ProvisionConfig
	repo      interfaces.ProvisionRepo
	platform  interfaces.PlatformClient
	liveness  interfaces.LivenessChecker
	generator interfaces.CredentialGenerator
	vault     interfaces.CredentialVault
	builder   *manifest.Builder
	metrics   *metrics.Metrics
	writer    *statusWriter
}

// NewCreateProvision accepts a nil vault, in which case credentials are only returned to the caller.
func NewCreateProvision(
	cfg *config.ProvisionConfig, repo interfaces.ProvisionRepo, platform interfaces.PlatformClient,
	checker interfaces.LivenessChecker, generator interfaces.CredentialGenerator, vault interfaces.CredentialVault,
	m *metrics.Metrics, opts ...Option,
) *CreateProvision {
	return &CreateProvision{
		cfg:       cfg,
		repo:      repo,
		platform:  platform,
		liveness:  checker,
		generator: generator,
		vault:     vault,
		builder:   manifest.NewBuilder(cfg.BaseDomain, cfg.Defaults),
		metrics:   m,
		writer:    newStatusWriter(repo, cfg, opts),
	}
}

func (c *CreateProvision) Handle(ctx context.Context, req entity.ProvisionRequest) (*dto.CreateProvisionResult, error) {
	start := c.writer.now()

	if err := ValidateRequest(req); err != nil {
		c.metrics.ObserveProvision(metrics.OutcomeInvalid, 0)
		return nil, err
	}

	existing, err := c.repo.FindActiveByTenant(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		c.metrics.ObserveProvision(metrics.OutcomeConflict, 0)
		return nil, errs.ConflictError{TenantID: req.TenantID, Err: fmt.Errorf("provision %s is %s", existing.ID, existing.Status)}
	}

	creds, err := c.generator.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating credentials: %w", err)
	}
	m, err := c.builder.Build(req, creds)
	if err != nil {
		c.metrics.ObserveProvision(metrics.OutcomeInvalid, 0)
		return nil, errs.ValidationError{Field: "manifest", Err: err}
	}

	p := entity.NewProvision(c.writer.newID(), req.TenantID, req.RequestedBy, req.Framework, req.SiteType, c.builder.ResolveDomain(req), start)
	p.AdminUsername = creds.AdminUsername
	p.CredentialsRef = consts.CredentialsReturnedOnce
	p.IsTest = req.IsTest
	if req.Notes != nil && *req.Notes != "" {
		p.AddNote(*req.Notes, start)
	}
	if err = c.repo.InsertProvision(ctx, p); err != nil {
		var conflict errs.ConflictError
		if errors.As(err, &conflict) {
			c.metrics.ObserveProvision(metrics.OutcomeConflict, 0)
		}
		return nil, err
	}
	slog.Info("provision admitted", "provision_id", p.ID, "tenant_id", p.TenantID, "domain", p.Domain, "framework", p.Framework)

	err = c.provision(ctx, p, m, creds)
	elapsed := c.writer.now().Sub(start)
	if err != nil {
		outcome := metrics.OutcomeFailed
		if errs.Kind(err) == errs.KindVerificationTimeout {
			outcome = metrics.OutcomeVerificationTimeout
		}
		c.metrics.ObserveProvision(outcome, elapsed)
		return nil, err
	}
	c.metrics.ObserveProvision(metrics.OutcomeActive, elapsed)
	slog.Info("provision active", "provision_id", p.ID, "tenant_id", p.TenantID, "domain", p.Domain, "elapsed", elapsed)

	return &dto.CreateProvisionResult{Provision: p, Credentials: creds}, nil
}

// provision drives an admitted PENDING record to ACTIVE. Every error return has already
// been recorded on the provision as FAILED.
func (c *CreateProvision) provision(ctx context.Context, p *entity.Provision, m manifest.Manifest, creds credentials.Credentials) error {
	if c.vault != nil {
		ref, err := c.vault.Store(ctx, p.ID, creds)
		if err != nil {
			return c.writer.fail(ctx, p, errs.PersistenceError{Op: "store credentials", Err: err})
		}
		p.CredentialsRef = ref
	}
	// the stored ref is only persisted by this write, so a failed write must not leave the object behind
	if err := c.writer.transition(ctx, p, consts.ProvisionStatusProvisioning); err != nil {
		c.discardCredentials(ctx, p)
		return c.writer.fail(ctx, p, err)
	}

	project, err := c.createProject(ctx, platform.CreateProjectRequest{
		Name:        m.ProjectName,
		Description: fmt.Sprintf("Dedicated site for tenant %s", p.TenantID),
	})
	if err != nil {
		return c.writer.fail(ctx, p, err)
	}
	p.ProjectID = &project.ProjectID
	if err = c.writer.save(ctx, p); err != nil {
		c.orphanProject(ctx, p)
		return c.writer.fail(ctx, p, err)
	}

	app, err := c.platform.CreateApplication(ctx, platform.CreateApplicationRequest{
		ProjectID:   project.ProjectID,
		Name:        m.ApplicationName,
		ComposeFile: string(m.Document),
		Domains:     m.Domains,
	})
	if err != nil {
		c.orphanProject(ctx, p)
		return c.writer.fail(ctx, p, err)
	}
	p.ApplicationID = &app.ApplicationID
	if app.ServerID != "" {
		p.ServerID = &app.ServerID
	}
	if err = c.writer.save(ctx, p); err != nil {
		c.compensate(ctx, p)
		return c.writer.fail(ctx, p, err)
	}

	deployment, err := c.platform.Deploy(ctx, app.ApplicationID)
	if err != nil {
		c.compensate(ctx, p)
		return c.writer.fail(ctx, p, err)
	}
	slog.Info("deployment triggered", "provision_id", p.ID, "application_id", app.ApplicationID, "deployment_id", deployment.DeploymentID)

	awaitStart := c.writer.now()
	attempts, err := liveness.Await(ctx, c.liveness, c.cfg.SiteURL(p.Domain), c.cfg.Liveness)
	if err != nil {
		budget := c.cfg.Liveness.Budget
		if ctx.Err() != nil {
			budget = c.writer.now().Sub(awaitStart).Round(time.Millisecond)
		}
		// the application is left running for platform-side investigation
		return c.writer.fail(ctx, p, errs.VerificationTimeoutError{Domain: p.Domain, Budget: budget, Attempts: attempts})
	}

	if err = c.writer.transition(ctx, p, consts.ProvisionStatusActive); err != nil {
		return c.writer.fail(ctx, p, err)
	}
	return nil
}

// createProject retries only on platform 5xx answers, at most CreateProjectRetries times.
// A transport error is not retried since the project may already exist.
func (c *CreateProvision) createProject(ctx context.Context, req platform.CreateProjectRequest) (platform.Project, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.CreateProjectBackoff), uint64(max(c.cfg.CreateProjectRetries, 0))),
		ctx,
	)
	var project platform.Project
	operation := func() error {
		var err error
		project, err = c.platform.CreateProject(ctx, req)
		if err == nil {
			return nil
		}
		var platformErr *errs.PlatformError
		if errors.As(err, &platformErr) && platformErr.ServerFailure() {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("create project failed, retrying", "project", req.Name, "in", wait, "err", err)
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return platform.Project{}, err
	}
	return project, nil
}

// compensate removes the application best-effort after a failure between create-application
// and a successful deploy. The project cannot be removed through the platform client.
func (c *CreateProvision) compensate(ctx context.Context, p *entity.Provision) {
	ctx, cancel := c.writer.detach(ctx)
	defer cancel()

	if err := c.platform.DeleteApplication(ctx, *p.ApplicationID); err != nil {
		slog.Error("compensation failed", "provision_id", p.ID, "application_id", *p.ApplicationID, "err", err)
		c.writer.note(ctx, p, fmt.Sprintf("compensation: delete application %s failed: %s", *p.ApplicationID, errs.PublicMessage(err)))
	} else {
		c.writer.note(ctx, p, fmt.Sprintf("compensation: deleted application %s", *p.ApplicationID))
	}
	c.orphanProject(ctx, p)
}

func (c *CreateProvision) discardCredentials(ctx context.Context, p *entity.Provision) {
	if c.vault == nil || p.CredentialsRef == consts.CredentialsReturnedOnce {
		return
	}
	ctx, cancel := c.writer.detach(ctx)
	defer cancel()

	if err := c.vault.Delete(ctx, p.CredentialsRef); err != nil {
		slog.Error("failed to delete stored credentials", "provision_id", p.ID, "ref", p.CredentialsRef, "err", err)
		return
	}
	p.CredentialsRef = consts.CredentialsReturnedOnce
}

func (c *CreateProvision) orphanProject(ctx context.Context, p *entity.Provision) {
	slog.Warn("platform project orphaned", "provision_id", p.ID, "project_id", *p.ProjectID)
	c.writer.note(ctx, p, fmt.Sprintf("orphaned project %s", *p.ProjectID))
}
