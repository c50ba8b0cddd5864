package dto_test

import (
	"testing"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/dto"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func failedProvision(t *testing.T, kind, message string) *entity.Provision {
	t.Helper()
	p := entity.NewProvision(uuid.New(), "t1", "u1", consts.FrameworkStaticSite, consts.SiteTypeBlog, "blog.sites.example.net", time.Now())
	require.NoError(t, p.Fail(kind, message, time.Now()))
	return p
}

func TestMapPublicProvisionUsesPublicError(t *testing.T) {
	p := failedProvision(t, errs.KindPlatform, "platform deploy failed with status 500: stack trace")
	public := "deployment platform deploy request failed with status 500"
	p.PublicError = &public

	require.Equal(t, public, *dto.MapPublicProvision(p).ErrorMessage)
	require.Equal(t, "platform deploy failed with status 500: stack trace", *dto.MapProvision(p).ErrorMessage)
}

func TestMapPublicProvisionRedactsPlatformMessageWithoutPublicError(t *testing.T) {
	p := failedProvision(t, errs.KindPlatform, "platform deploy failed with status 500: stack trace")

	require.Equal(t, "deployment platform request failed", *dto.MapPublicProvision(p).ErrorMessage)
}

func TestMapPublicProvisionKeepsOtherKinds(t *testing.T) {
	p := failedProvision(t, errs.KindVerificationTimeout, "deployed but not reachable")

	require.Equal(t, "deployed but not reachable", *dto.MapPublicProvision(p).ErrorMessage)
}
