package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/config"
	"github.com/google/uuid"
)

// statusWriter persists provision transitions and notes for the commands in this package.
// Writes run on a context detached from the caller so an aborted request still leaves the
// record in the state the provision actually reached.
type statusWriter struct {
	repo         interfaces.ProvisionRepo
	now          func() time.Time
	newID        func() uuid.UUID
	writeTimeout time.Duration
}

type Option func(*statusWriter)

// WithClock replaces time.Now for status timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *statusWriter) { w.now = now }
}

// WithIDs replaces uuid.New for new provision ids.
func WithIDs(newID func() uuid.UUID) Option {
	return func(w *statusWriter) { w.newID = newID }
}

func newStatusWriter(repo interfaces.ProvisionRepo, cfg *config.ProvisionConfig, opts []Option) *statusWriter {
	w := &statusWriter{repo: repo, now: time.Now, newID: uuid.New, writeTimeout: cfg.StatusWriteTimeout}
	if w.writeTimeout <= 0 {
		w.writeTimeout = 5 * time.Second
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// transition moves p to status to and persists it with compare-and-set on the previous status.
// On a failed write the in-memory provision is left unchanged.
func (w *statusWriter) transition(ctx context.Context, p *entity.Provision, to consts.ProvisionStatus) error {
	ctx, cancel := w.detach(ctx)
	defer cancel()

	from, updatedAt := p.Status, p.UpdatedAt
	if err := p.Transition(to, w.now()); err != nil {
		return err
	}
	if err := w.repo.UpdateProvision(ctx, p, from); err != nil {
		p.Status, p.UpdatedAt = from, updatedAt
		return err
	}
	slog.Info("provision transitioned", "provision_id", p.ID, "tenant_id", p.TenantID, "from", from, "to", to)
	return nil
}

// save persists field changes without a status change.
func (w *statusWriter) save(ctx context.Context, p *entity.Provision) error {
	ctx, cancel := w.detach(ctx)
	defer cancel()

	p.UpdatedAt = w.now()
	return w.repo.UpdateProvision(ctx, p, p.Status)
}

func (w *statusWriter) note(ctx context.Context, p *entity.Provision, message string) {
	ctx, cancel := w.detach(ctx)
	defer cancel()

	n := p.AddNote(message, w.now())
	if err := w.repo.AppendNote(ctx, p.ID, n); err != nil {
		slog.Error("failed to append provision note", "provision_id", p.ID, "note", message, "err", err)
	}
}

// fail writes FAILED with cause's message and returns cause. If the record moved on
// concurrently the result is a ConflictError; any other failed write means the record needs
// reconciliation.
func (w *statusWriter) fail(ctx context.Context, p *entity.Provision, cause error) error {
	ctx, cancel := w.detach(ctx)
	defer cancel()

	from := p.Status
	if err := p.Fail(errs.Kind(cause), cause.Error(), w.now()); err != nil {
		return errs.ReconciliationRequiredError{ProvisionID: p.ID.String(), Cause: cause, WriteErr: err}
	}
	public := errs.PublicMessage(cause)
	p.PublicError = &public
	if err := w.repo.UpdateProvision(ctx, p, from); err != nil {
		if errors.Is(err, errs.ErrStatusChanged) {
			slog.Warn("provision changed concurrently, failure not recorded", "provision_id", p.ID, "tenant_id", p.TenantID, "cause", cause)
			return errs.ConflictError{TenantID: p.TenantID, Err: fmt.Errorf("provision %s changed while %s: %w", p.ID, from, err)}
		}
		slog.Error("failed to record provision failure", "provision_id", p.ID, "tenant_id", p.TenantID, "cause", cause, "err", err)
		return errs.ReconciliationRequiredError{ProvisionID: p.ID.String(), Cause: cause, WriteErr: err}
	}
	slog.Warn("provision failed", "provision_id", p.ID, "tenant_id", p.TenantID, "from", from, "kind", errs.Kind(cause), "err", cause)
	return cause
}

func (w *statusWriter) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), w.writeTimeout)
}
