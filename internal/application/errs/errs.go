package errs

import (
	"errors"
	"fmt"
	"time"
)

const (
	KindValidation          = "ValidationError"
	KindConflict            = "ConflictError"
	KindPlatform            = "PlatformError"
	KindVerificationTimeout = "VerificationTimeoutError"
	KindPersistence         = "PersistenceError"
	KindNotFound            = "NotFoundError"
	KindStale               = "StaleProvisionError"
	KindInternal            = "InternalError"
)

// ErrStatusChanged is wrapped in a PersistenceError when a compare-and-set update finds
// the stored status no longer matches.
var ErrStatusChanged = errors.New("stored status changed concurrently")

type ValidationError struct {
	Field string
	Err   error
}

func (t ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", t.Field, t.Err)
}

func (t ValidationError) Unwrap() error { return t.Err }

type ConflictError struct {
	TenantID string
	Err      error
}

func (t ConflictError) Error() string {
	return fmt.Sprintf("conflict for tenant %s: %v", t.TenantID, t.Err)
}

func (t ConflictError) Unwrap() error { return t.Err }

// PlatformError carries the deployment platform's response verbatim. StatusCode is 0
// when the request never got a response.
type PlatformError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (t *PlatformError) Error() string {
	if t.StatusCode == 0 {
		return fmt.Sprintf("platform %s failed: %v", t.Op, t.Err)
	}
	if t.Err != nil {
		return fmt.Sprintf("platform %s failed with status %d: %v", t.Op, t.StatusCode, t.Err)
	}
	return fmt.Sprintf("platform %s failed with status %d: %s", t.Op, t.StatusCode, t.Body)
}

func (t *PlatformError) Unwrap() error { return t.Err }

// ServerFailure reports a 5xx answer from the platform.
func (t *PlatformError) ServerFailure() bool {
	return t.StatusCode >= 500
}

// Transient reports failures worth retrying for idempotent calls: transport errors and 5xx.
func (t *PlatformError) Transient() bool {
	return t.StatusCode == 0 || t.ServerFailure()
}

type VerificationTimeoutError struct {
	Domain   string
	Budget   time.Duration
	Attempts int
}

func (t VerificationTimeoutError) Error() string {
	return fmt.Sprintf("deployed but not reachable: %s did not respond within %v (%d probes)", t.Domain, t.Budget, t.Attempts)
}

type PersistenceError struct {
	Op  string
	Err error
}

func (t PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", t.Op, t.Err)
}

func (t PersistenceError) Unwrap() error { return t.Err }

type NotFoundError struct {
	Resource string
	ID       string
}

func (t NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", t.Resource, t.ID)
}

// StaleProvisionError is recorded by the reconciler on provisions that stopped making progress.
type StaleProvisionError struct {
	ProvisionID    string
	Since          time.Time
	PlatformStatus string
}

func (t StaleProvisionError) Error() string {
	if t.PlatformStatus == "" {
		return fmt.Sprintf("provision %s stalled since %s before reaching the platform", t.ProvisionID, t.Since.Format(time.RFC3339))
	}
	return fmt.Sprintf("provision %s stalled since %s, platform reports %q", t.ProvisionID, t.Since.Format(time.RFC3339), t.PlatformStatus)
}

// ReconciliationRequiredError wraps the original failure when the FAILED status write
// also failed, so the record may still read PENDING or PROVISIONING.
type ReconciliationRequiredError struct {
	ProvisionID string
	Cause       error
	WriteErr    error
}

func (t ReconciliationRequiredError) Error() string {
	return fmt.Sprintf("%v (provision %s may be left in a non-terminal state, manual reconciliation required: %v)",
		t.Cause, t.ProvisionID, t.WriteErr)
}

func (t ReconciliationRequiredError) Unwrap() []error {
	return []error{t.Cause, t.WriteErr}
}

// Kind names the taxonomy entry of err. The original cause wins over a failed status write.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var rec ReconciliationRequiredError
	if errors.As(err, &rec) {
		return Kind(rec.Cause)
	}
	var (
		validation ValidationError
		conflict   ConflictError
		platform   *PlatformError
		timeout    VerificationTimeoutError
		persist    PersistenceError
		notFound   NotFoundError
		stale      StaleProvisionError
	)
	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &conflict):
		return KindConflict
	case errors.As(err, &platform):
		return KindPlatform
	case errors.As(err, &timeout):
		return KindVerificationTimeout
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &persist):
		return KindPersistence
	case errors.As(err, &stale):
		return KindStale
	default:
		return KindInternal
	}
}

// PublicMessage is safe to show to non-operators: raw platform bodies are dropped.
func PublicMessage(err error) string {
	var platform *PlatformError
	if errors.As(err, &platform) {
		if platform.StatusCode == 0 {
			return fmt.Sprintf("deployment platform %s request failed", platform.Op)
		}
		return fmt.Sprintf("deployment platform %s request failed with status %d", platform.Op, platform.StatusCode)
	}
	return err.Error()
}
