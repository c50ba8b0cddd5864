package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/db/repo"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/db/repotest"
	"github.com/Builder-Lawyers/site-provisioner/internal/testinfra"
	dbs "github.com/Builder-Lawyers/site-provisioner/pkg/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *repo.ProvisionRepo {
	pool := testinfra.Pool(t)
	testinfra.Truncate(t, pool)
	return repo.NewProvisionRepo(dbs.NewUoWFactory(pool))
}

func TestProvisionRepoContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) interfaces.ProvisionRepo {
		return newRepo(t)
	})
}

func TestUpdateProvisionPersistsFailureFields(t *testing.T) {
	provisionRepo := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	failed := entity.NewProvision(uuid.New(), "tenant-b", "u", consts.FrameworkStaticSite, consts.SiteTypeBlog, "b.sites.test", now)
	require.NoError(t, provisionRepo.InsertProvision(ctx, failed))
	require.NoError(t, failed.Fail(errs.KindPlatform, "boom: raw body", now))
	public := "boom"
	failed.PublicError = &public
	require.NoError(t, provisionRepo.UpdateProvision(ctx, failed, consts.ProvisionStatusPending))

	got, err := provisionRepo.GetProvisionByID(ctx, failed.ID)
	require.NoError(t, err)
	require.Equal(t, consts.ProvisionStatusFailed, got.Status)
	require.Equal(t, errs.KindPlatform, *got.ErrorKind)
	require.Equal(t, "boom: raw body", *got.ErrorMessage)
	require.Equal(t, "boom", *got.PublicError)
	require.True(t, got.UpdatedAt.Equal(now))
}
