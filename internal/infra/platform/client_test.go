package platform_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	calls []string
}

func (r *recordingObserver) ObservePlatformRequest(op string, code int) {
	r.calls = append(r.calls, op)
}

func newClient(t *testing.T, h http.Handler, opts ...platform.Option) *platform.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := &platform.Config{
		BaseURL:       srv.URL + "/",
		Token:         "test-token",
		Timeout:       time.Second,
		StatusRetries: 2,
		RetryInterval: 5 * time.Millisecond,
	}
	return platform.NewClient(cfg, opts...)
}

func TestCreateProjectSendsBearerJSON(t *testing.T) {
	obs := &recordingObserver{}
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/projects", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body platform.CreateProjectRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tenant-t1", body.Name)

		_ = json.NewEncoder(w).Encode(map[string]string{"projectId": "p-1"})
	}), platform.WithObserver(obs))

	project, err := c.CreateProject(context.Background(), platform.CreateProjectRequest{Name: "tenant-t1"})
	require.NoError(t, err)
	require.Equal(t, "p-1", project.ProjectID)
	require.Equal(t, []string{platform.OpCreateProject}, obs.calls)
}

func TestCreateApplicationNon2xxReturnsPlatformErrorWithBody(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"compose file invalid"}`))
	}))

	_, err := c.CreateApplication(context.Background(), platform.CreateApplicationRequest{ProjectID: "p-1", Name: "app"})
	var platformErr *errs.PlatformError
	require.ErrorAs(t, err, &platformErr)
	require.Equal(t, platform.OpCreateApplication, platformErr.Op)
	require.Equal(t, http.StatusUnprocessableEntity, platformErr.StatusCode)
	require.Equal(t, `{"message":"compose file invalid"}`, platformErr.Body)
	require.False(t, platformErr.Transient())
}

func TestDeployIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/v1/applications/a-1/deploy", r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.Deploy(context.Background(), "a-1")
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestGetStatusRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(platform.ApplicationStatus{ApplicationID: "a-1", Status: platform.StatusRunning})
	}))

	status, err := c.GetStatus(context.Background(), "a-1")
	require.NoError(t, err)
	require.True(t, status.Deployed())
	require.Equal(t, int32(3), calls.Load())
}

func TestGetStatusRetriesInternalServerError(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(platform.ApplicationStatus{ApplicationID: "a-1", Status: platform.StatusRunning})
	}))

	_, err := c.GetStatus(context.Background(), "a-1")
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestGetStatusDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.GetStatus(context.Background(), "a-1")
	var platformErr *errs.PlatformError
	require.True(t, errors.As(err, &platformErr))
	require.Equal(t, http.StatusForbidden, platformErr.StatusCode)
	require.Equal(t, int32(1), calls.Load())
}

func TestDeleteApplicationTreatsNotFoundAsDone(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	}))

	require.NoError(t, c.DeleteApplication(context.Background(), "a-1"))
}

func TestCallTimesOutPerRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	c := platform.NewClient(&platform.Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := c.CreateProject(context.Background(), platform.CreateProjectRequest{Name: "x"})
	var platformErr *errs.PlatformError
	require.ErrorAs(t, err, &platformErr)
	require.Equal(t, 0, platformErr.StatusCode)
	require.Less(t, time.Since(start), time.Second)
}
