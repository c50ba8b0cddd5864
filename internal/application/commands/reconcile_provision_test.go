package commands

import (
	"context"
	"testing"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/platform"
	"github.com/stretchr/testify/require"
)

func insertStuck(t *testing.T, h *harness, withApplication bool) *entity.Provision {
	t.Helper()
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	p := entity.NewProvision(h.id, "t1", "u1", consts.FrameworkContentManagement, consts.SiteTypeStorefront, "janes-pottery.sites.example.net", past)
	require.NoError(t, h.repo.InsertProvision(ctx, p))
	if withApplication {
		require.NoError(t, p.Transition(consts.ProvisionStatusProvisioning, past))
		projectID, appID := "proj-1", "app-1"
		p.ProjectID, p.ApplicationID = &projectID, &appID
		require.NoError(t, h.repo.UpdateProvision(ctx, p, consts.ProvisionStatusPending))
	}
	return p
}

func (h *harness) reconcile() *ReconcileProvision {
	return NewReconcileProvision(h.cfg, h.repo, h.platform, h.checker, nil)
}

func TestReconcileProvisionFailsRecordThatNeverReachedPlatform(t *testing.T) {
	h := newHarness()
	p := insertStuck(t, h, false)

	require.NoError(t, h.reconcile().Handle(context.Background(), p))

	stored := h.stored(t)
	require.Equal(t, consts.ProvisionStatusFailed, stored.Status)
	require.Equal(t, errs.KindStale, *stored.ErrorKind)
	require.Zero(t, h.platform.count(platform.OpGetStatus))
	requireMonotonic(t, h.repo, h.id)
}

func TestReconcileProvisionPromotesRunningReachableSite(t *testing.T) {
	h := newHarness()
	p := insertStuck(t, h, true)

	require.NoError(t, h.reconcile().Handle(context.Background(), p))

	stored := h.stored(t)
	require.Equal(t, consts.ProvisionStatusActive, stored.Status)
	require.Equal(t, int32(1), h.checker.calls.Load())
	requireMonotonic(t, h.repo, h.id)
}

func TestReconcileProvisionFailsWhenPlatformReportsError(t *testing.T) {
	h := newHarness()
	h.platform.status = platform.ApplicationStatus{ApplicationID: "app-1", Status: platform.StatusError}
	p := insertStuck(t, h, true)

	require.NoError(t, h.reconcile().Handle(context.Background(), p))

	stored := h.stored(t)
	require.Equal(t, consts.ProvisionStatusFailed, stored.Status)
	require.Contains(t, *stored.ErrorMessage, `platform reports "error"`)
	require.Zero(t, h.checker.calls.Load())
}

func TestReconcileProvisionLeavesRecordWhenStatusUnavailable(t *testing.T) {
	h := newHarness()
	h.platform.statusErr = &errs.PlatformError{Op: platform.OpGetStatus, StatusCode: 503}
	p := insertStuck(t, h, true)

	require.Error(t, h.reconcile().Handle(context.Background(), p))
	require.Equal(t, consts.ProvisionStatusProvisioning, h.stored(t).Status)
}

func TestReconcileProvisionLeavesRecordCancelledMeanwhile(t *testing.T) {
	h := newHarness()
	p := insertStuck(t, h, false)
	_, err := h.cancel().Handle(context.Background(), h.id)
	require.NoError(t, err)

	require.NoError(t, h.reconcile().Handle(context.Background(), p))

	stored := h.stored(t)
	require.Equal(t, consts.ProvisionStatusCancelled, stored.Status)
	require.Nil(t, stored.ErrorKind)
}
