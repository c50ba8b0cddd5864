// Package platform is a JSON client for the deployment platform that hosts tenant sites.
// Every call carries a bearer token, attached by an oauth2 transport, and its own timeout. Only GetStatus is retried, since
// repeating a create or deploy could duplicate platform resources.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
)

const (
	OpCreateProject     = "create-project"
	OpCreateApplication = "create-application"
	OpDeploy            = "deploy"
	OpGetStatus         = "get-status"
	OpDeleteApplication = "delete-application"
)

// maxErrorBody caps how much of a failed response is kept in errs.PlatformError.
const maxErrorBody = 4 << 10

type Observer interface {
	ObservePlatformRequest(op string, code int)
}

type Client struct {
	cfg        *Config
	httpClient *http.Client
	observer   Observer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func NewClient(cfg *Config, opts ...Option) *Client {
	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	authed := *c.httpClient
	authed.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
		Base:   c.httpClient.Transport,
	}
	c.httpClient = &authed
	return c
}

func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (Project, error) {
	var out Project
	if err := c.call(ctx, OpCreateProject, http.MethodPost, "/api/v1/projects", req, &out); err != nil {
		return Project{}, err
	}
	if out.ProjectID == "" {
		return Project{}, &errs.PlatformError{Op: OpCreateProject, StatusCode: http.StatusOK, Body: "response has no projectId"}
	}
	return out, nil
}

func (c *Client) CreateApplication(ctx context.Context, req CreateApplicationRequest) (Application, error) {
	var out Application
	if err := c.call(ctx, OpCreateApplication, http.MethodPost, "/api/v1/applications", req, &out); err != nil {
		return Application{}, err
	}
	if out.ApplicationID == "" {
		return Application{}, &errs.PlatformError{Op: OpCreateApplication, StatusCode: http.StatusOK, Body: "response has no applicationId"}
	}
	return out, nil
}

func (c *Client) Deploy(ctx context.Context, applicationID string) (Deployment, error) {
	var out Deployment
	path := fmt.Sprintf("/api/v1/applications/%s/deploy", url.PathEscape(applicationID))
	if err := c.call(ctx, OpDeploy, http.MethodPost, path, nil, &out); err != nil {
		return Deployment{}, err
	}
	return out, nil
}

func (c *Client) GetStatus(ctx context.Context, applicationID string) (ApplicationStatus, error) {
	path := fmt.Sprintf("/api/v1/applications/%s", url.PathEscape(applicationID))

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInterval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(c.cfg.StatusRetries, 0))), ctx)

	var out ApplicationStatus
	operation := func() error {
		out = ApplicationStatus{}
		err := c.call(ctx, OpGetStatus, http.MethodGet, path, nil, &out)
		if err == nil || retryableStatus(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("platform status request failed, retrying", "applicationId", applicationID, "in", wait, "err", err)
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return ApplicationStatus{}, err
	}
	return out, nil
}

func (c *Client) DeleteApplication(ctx context.Context, applicationID string) error {
	path := fmt.Sprintf("/api/v1/applications/%s", url.PathEscape(applicationID))
	err := c.call(ctx, OpDeleteApplication, http.MethodDelete, path, nil, nil)
	var platformErr *errs.PlatformError
	if errors.As(err, &platformErr) && platformErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

func retryableStatus(err error) bool {
	var platformErr *errs.PlatformError
	return errors.As(err, &platformErr) && platformErr.Transient()
}

func (c *Client) call(ctx context.Context, op, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return &errs.PlatformError{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		body = bytes.NewReader(raw)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return &errs.PlatformError{Op: op, Err: err}
	}
	return c.do(req, op, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimSuffix(c.cfg.BaseURL, "/")+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(op, 0)
		return &errs.PlatformError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.observe(op, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.Debug("platform request rejected", "op", op, "status", resp.StatusCode)
		return &errs.PlatformError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errs.PlatformError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func (c *Client) observe(op string, code int) {
	if c.observer != nil {
		c.observer.ObservePlatformRequest(op, code)
	}
}
