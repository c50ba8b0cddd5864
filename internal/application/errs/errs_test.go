package errs_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/stretchr/testify/require"
)

func TestKindResolvesWrappedErrors(t *testing.T) {
	cases := map[string]error{
		errs.KindValidation:          fmt.Errorf("create: %w", errs.ValidationError{Field: "subdomain", Err: errors.New("empty")}),
		errs.KindConflict:            errs.ConflictError{TenantID: "t1", Err: errors.New("exists")},
		errs.KindPlatform:            fmt.Errorf("deploy: %w", &errs.PlatformError{Op: "deploy", StatusCode: 500, Body: "x"}),
		errs.KindVerificationTimeout: errs.VerificationTimeoutError{Domain: "a.b", Budget: time.Second},
		errs.KindPersistence:         errs.PersistenceError{Op: "insert", Err: errors.New("conn reset")},
		errs.KindNotFound:            errs.NotFoundError{Resource: "provision", ID: "1"},
		errs.KindInternal:            errors.New("plain"),
	}
	for want, err := range cases {
		require.Equal(t, want, errs.Kind(err), err.Error())
	}
	require.Empty(t, errs.Kind(nil))
}

func TestKindPrefersCauseOverFailedStatusWrite(t *testing.T) {
	err := errs.ReconciliationRequiredError{
		ProvisionID: "p1",
		Cause:       &errs.PlatformError{Op: "create-project", StatusCode: 503, Body: "down"},
		WriteErr:    errs.PersistenceError{Op: "update", Err: errors.New("db gone")},
	}
	require.Equal(t, errs.KindPlatform, errs.Kind(err))
	require.Contains(t, err.Error(), "manual reconciliation required")

	var persist errs.PersistenceError
	require.True(t, errors.As(err, &persist))
}

func TestPublicMessageHidesPlatformBody(t *testing.T) {
	err := &errs.PlatformError{Op: "create-application", StatusCode: 422, Body: `{"secret":"leak"}`}
	require.Contains(t, err.Error(), "leak")
	require.NotContains(t, errs.PublicMessage(err), "leak")
	require.Contains(t, errs.PublicMessage(err), "422")
}

func TestPlatformErrorClassification(t *testing.T) {
	cases := []struct {
		status    int
		server    bool
		transient bool
	}{
		{status: 0, server: false, transient: true},
		{status: 404, server: false, transient: false},
		{status: 500, server: true, transient: true},
		{status: 503, server: true, transient: true},
	}
	for _, tc := range cases {
		err := &errs.PlatformError{Op: "get-status", StatusCode: tc.status, Err: errors.New("x")}
		require.Equal(t, tc.server, err.ServerFailure(), tc.status)
		require.Equal(t, tc.transient, err.Transient(), tc.status)
	}
}
