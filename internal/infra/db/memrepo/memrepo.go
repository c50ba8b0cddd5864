// Package memrepo is an in-process ProvisionRepo for the CLI's --store=memory mode and for
// tests. It enforces the same admission and compare-and-set rules as the Postgres repo.
package memrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/google/uuid"
)

type ProvisionRepo struct {
	mu         sync.Mutex
	provisions map[uuid.UUID]*entity.Provision
	history    map[uuid.UUID][]consts.ProvisionStatus
}

var _ interfaces.ProvisionRepo = (*ProvisionRepo)(nil)

func NewProvisionRepo() *ProvisionRepo {
	return &ProvisionRepo{
		provisions: make(map[uuid.UUID]*entity.Provision),
		history:    make(map[uuid.UUID][]consts.ProvisionStatus),
	}
}

func (r *ProvisionRepo) InsertProvision(_ context.Context, provision *entity.Provision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.provisions[provision.ID]; ok {
		return errs.PersistenceError{Op: "insert provision", Err: fmt.Errorf("provision %s already exists", provision.ID)}
	}
	for _, p := range r.provisions {
		if !p.Status.IsNonTerminal() {
			continue
		}
		if p.TenantID == provision.TenantID {
			return errs.ConflictError{TenantID: provision.TenantID, Err: fmt.Errorf("provision %s is %s", p.ID, p.Status)}
		}
		if p.Domain == provision.Domain {
			return errs.ConflictError{TenantID: provision.TenantID, Err: fmt.Errorf("domain %s is bound to provision %s", p.Domain, p.ID)}
		}
	}
	r.provisions[provision.ID] = clone(provision)
	r.history[provision.ID] = []consts.ProvisionStatus{provision.Status}
	return nil
}

func (r *ProvisionRepo) UpdateProvision(_ context.Context, provision *entity.Provision, from consts.ProvisionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.provisions[provision.ID]
	if !ok || stored.Status != from {
		return errs.PersistenceError{Op: "update provision", Err: fmt.Errorf("provision %s expected %s: %w", provision.ID, from, errs.ErrStatusChanged)}
	}
	updated := clone(provision)
	// notes are append-only and only change through AppendNote
	updated.Notes = stored.Notes
	r.provisions[provision.ID] = updated
	if provision.Status != from {
		r.history[provision.ID] = append(r.history[provision.ID], provision.Status)
	}
	return nil
}

func (r *ProvisionRepo) AppendNote(_ context.Context, id uuid.UUID, note entity.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.provisions[id]
	if !ok {
		return errs.PersistenceError{Op: "append note", Err: errs.NotFoundError{Resource: "provision", ID: id.String()}}
	}
	stored.Notes = append(stored.Notes, note)
	return nil
}

func (r *ProvisionRepo) FindActiveByTenant(_ context.Context, tenantID string) (*entity.Provision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.provisions {
		if p.TenantID == tenantID && p.Status.IsNonTerminal() {
			return clone(p), nil
		}
	}
	return nil, nil
}

func (r *ProvisionRepo) GetProvisionByID(_ context.Context, id uuid.UUID) (*entity.Provision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.provisions[id]
	if !ok {
		return nil, errs.NotFoundError{Resource: "provision", ID: id.String()}
	}
	return clone(p), nil
}

func (r *ProvisionRepo) ListStale(_ context.Context, updatedBefore time.Time, limit int) ([]*entity.Provision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Provision
	for _, p := range r.provisions {
		if (p.Status == consts.ProvisionStatusPending || p.Status == consts.ProvisionStatusProvisioning) && p.UpdatedAt.Before(updatedBefore) {
			c := clone(p)
			c.Notes = nil
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// History lists every status the provision has been stored with, in write order.
func (r *ProvisionRepo) History(id uuid.UUID) []consts.ProvisionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]consts.ProvisionStatus(nil), r.history[id]...)
}

func clone(p *entity.Provision) *entity.Provision {
	c := *p
	c.ProjectID = cloneString(p.ProjectID)
	c.ApplicationID = cloneString(p.ApplicationID)
	c.ServerID = cloneString(p.ServerID)
	c.ErrorKind = cloneString(p.ErrorKind)
	c.ErrorMessage = cloneString(p.ErrorMessage)
	c.PublicError = cloneString(p.PublicError)
	c.Notes = append([]entity.Note(nil), p.Notes...)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
