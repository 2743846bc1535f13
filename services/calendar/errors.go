package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ProviderError reports a calendar backend failure. Transient errors
// (network, 5xx, timeout) have already been retried once; permanent errors
// (auth/permission 4xx) are configuration problems and are never retried.
type ProviderError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *ProviderError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("calendar %s: %s provider error: %v", e.Op, kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retryable provider failure.
func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Transient
}

// classify wraps a raw API failure. statusCode <= 0 means no HTTP response
// was received (network failure), which counts as transient.
func classify(op string, statusCode int, err error) error {
	transient := statusCode <= 0 ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= 500
	return &ProviderError{Op: op, Transient: transient, Err: err}
}

// withRetry runs fn with a bounded timeout and retries exactly once, after a
// short backoff, when the failure is transient.
func withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	attempt := func() error {
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()
		return fn(callCtx)
	}

	err := attempt()
	if err == nil || !IsTransient(err) {
		return err
	}

	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return err
	}
	return attempt()
}
