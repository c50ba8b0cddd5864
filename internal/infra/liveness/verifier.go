// Package liveness decides whether a freshly deployed site answers on its public domain.
package liveness

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Checker interface {
	Check(ctx context.Context, url string, timeout time.Duration) bool
}

type Verifier struct {
	client *http.Client
}

func NewVerifier() *Verifier {
	return &Verifier{client: &http.Client{
		// a redirect to a login page or https still proves the site is served
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
	}}
}

// Check issues a single GET. Any 2xx or 3xx answer counts as live.
func (v *Verifier) Check(ctx context.Context, url string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Warn("liveness request not built", "url", url, "err", err)
		return false
	}
	resp, err := v.client.Do(req)
	if err != nil {
		slog.Debug("liveness probe failed", "url", url, "err", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

type Policy struct {
	Budget          time.Duration
	ProbeTimeout    time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Await probes url with exponential backoff until it answers or the budget is spent.
// It never blocks longer than the budget, even when a single probe hangs. The returned
// error is context.DeadlineExceeded on budget exhaustion or the caller's ctx error.
func Await(ctx context.Context, checker Checker, url string, policy Policy) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, policy.Budget)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval
	b.MaxElapsedTime = policy.Budget

	attempts := 0
	operation := func() error {
		attempts++
		timeout := policy.ProbeTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = min(timeout, time.Until(deadline))
		}
		if timeout <= 0 {
			return backoff.Permanent(context.DeadlineExceeded)
		}
		if checker.Check(ctx, url, timeout) {
			return nil
		}
		return errNotLive
	}

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	if err == nil {
		return attempts, nil
	}
	if ctx.Err() != nil {
		return attempts, ctx.Err()
	}
	// backoff gave up because the next wait would overrun the budget
	return attempts, context.DeadlineExceeded
}

var errNotLive = errors.New("site not live")
