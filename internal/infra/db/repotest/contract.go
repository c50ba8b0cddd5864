// Package repotest provides contract tests for [interfaces.ProvisionRepo] implementations.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Factory creates a fresh, empty repo for each subtest.
type Factory func(t *testing.T) interfaces.ProvisionRepo

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newProvision(tenant, domain string) *entity.Provision {
	p := entity.NewProvision(uuid.New(), tenant, "user-1", consts.FrameworkContentManagement, consts.SiteTypeStorefront, domain, base)
	p.AdminUsername = "admin_abc123"
	p.CredentialsRef = consts.CredentialsReturnedOnce
	return p
}

// Run exercises the ProvisionRepo contract.
func Run(t *testing.T, factory Factory) {
	t.Run("InsertAndGet", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		p := newProvision("tenant-a", "a.sites.test")
		p.AddNote("created", base)
		require.NoError(t, repo.InsertProvision(ctx, p))

		got, err := repo.GetProvisionByID(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, p.TenantID, got.TenantID)
		require.Equal(t, consts.ProvisionStatusPending, got.Status)
		require.Equal(t, "admin_abc123", got.AdminUsername)
		require.Len(t, got.Notes, 1)
		require.Equal(t, "created", got.Notes[0].Message)
		require.Nil(t, got.ApplicationID)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		repo := factory(t)
		_, err := repo.GetProvisionByID(context.Background(), uuid.New())
		var notFound errs.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("SecondLiveProvisionForTenantConflicts", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		require.NoError(t, repo.InsertProvision(ctx, newProvision("tenant-a", "a.sites.test")))

		err := repo.InsertProvision(ctx, newProvision("tenant-a", "b.sites.test"))
		var conflict errs.ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("DomainBoundToLiveProvisionConflicts", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		require.NoError(t, repo.InsertProvision(ctx, newProvision("tenant-a", "shared.sites.test")))

		err := repo.InsertProvision(ctx, newProvision("tenant-b", "shared.sites.test"))
		var conflict errs.ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("TerminalProvisionDoesNotBlockAdmission", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		p := newProvision("tenant-a", "a.sites.test")
		require.NoError(t, repo.InsertProvision(ctx, p))
		require.NoError(t, p.Fail(errs.KindPlatform, "boom", base.Add(time.Second)))
		require.NoError(t, repo.UpdateProvision(ctx, p, consts.ProvisionStatusPending))

		require.NoError(t, repo.InsertProvision(ctx, newProvision("tenant-a", "a.sites.test")))
	})

	t.Run("ConcurrentAdmissionAdmitsExactlyOne", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		const callers = 8
		var wg sync.WaitGroup
		results := make(chan error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results <- repo.InsertProvision(ctx, newProvision("tenant-race", fmt.Sprintf("race-%d.sites.test", i)))
			}(i)
		}
		wg.Wait()
		close(results)

		admitted, conflicts := 0, 0
		for err := range results {
			var conflict errs.ConflictError
			switch {
			case err == nil:
				admitted++
			case errors.As(err, &conflict):
				conflicts++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		require.Equal(t, 1, admitted)
		require.Equal(t, callers-1, conflicts)
	})

	t.Run("UpdateIsCompareAndSet", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		p := newProvision("tenant-a", "a.sites.test")
		require.NoError(t, repo.InsertProvision(ctx, p))

		require.NoError(t, p.Transition(consts.ProvisionStatusProvisioning, base.Add(time.Second)))
		projectID := "proj-1"
		p.ProjectID = &projectID
		require.NoError(t, repo.UpdateProvision(ctx, p, consts.ProvisionStatusPending))

		err := repo.UpdateProvision(ctx, p, consts.ProvisionStatusPending)
		require.ErrorIs(t, err, errs.ErrStatusChanged)

		got, err := repo.GetProvisionByID(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, consts.ProvisionStatusProvisioning, got.Status)
		require.Equal(t, "proj-1", *got.ProjectID)
	})

	t.Run("NotesAreAppendOnly", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		p := newProvision("tenant-a", "a.sites.test")
		require.NoError(t, repo.InsertProvision(ctx, p))
		require.NoError(t, repo.AppendNote(ctx, p.ID, entity.Note{Message: "first", CreatedAt: base}))
		require.NoError(t, repo.AppendNote(ctx, p.ID, entity.Note{Message: "second", CreatedAt: base.Add(time.Second)}))

		require.NoError(t, p.Transition(consts.ProvisionStatusProvisioning, base.Add(2*time.Second)))
		require.NoError(t, repo.UpdateProvision(ctx, p, consts.ProvisionStatusPending))

		got, err := repo.GetProvisionByID(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, got.Notes, 2)
		require.Equal(t, "first", got.Notes[0].Message)
		require.Equal(t, "second", got.Notes[1].Message)
	})

	t.Run("FindActiveByTenant", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		got, err := repo.FindActiveByTenant(ctx, "tenant-a")
		require.NoError(t, err)
		require.Nil(t, got)

		p := newProvision("tenant-a", "a.sites.test")
		require.NoError(t, repo.InsertProvision(ctx, p))
		got, err = repo.FindActiveByTenant(ctx, "tenant-a")
		require.NoError(t, err)
		require.Equal(t, p.ID, got.ID)
	})

	t.Run("ListStaleReturnsOldInFlightRecords", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		old := newProvision("tenant-old", "old.sites.test")
		require.NoError(t, repo.InsertProvision(ctx, old))

		fresh := newProvision("tenant-fresh", "fresh.sites.test")
		fresh.CreatedAt = base.Add(time.Hour)
		fresh.UpdatedAt = base.Add(time.Hour)
		require.NoError(t, repo.InsertProvision(ctx, fresh))

		done := newProvision("tenant-done", "done.sites.test")
		require.NoError(t, repo.InsertProvision(ctx, done))
		require.NoError(t, done.Fail(errs.KindPlatform, "boom", base))
		require.NoError(t, repo.UpdateProvision(ctx, done, consts.ProvisionStatusPending))

		stale, err := repo.ListStale(ctx, base.Add(30*time.Minute), 10)
		require.NoError(t, err)
		require.Len(t, stale, 1)
		require.Equal(t, old.ID, stale[0].ID)
	})
}
