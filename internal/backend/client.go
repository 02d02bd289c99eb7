// Package backend adapts pluggable text-generation providers behind one
// interface. The core treats provider output as untrusted text; this
// package is only responsible for getting it back reliably, with timeout
// and retry handling for transient failures.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Request carries one generation call.
type Request struct {
	// System is the directive text prepended as the generation's framing.
	System string
	// Prompt is the full request text.
	Prompt string
	// Model selects the backend model identity; empty uses the provider
	// default.
	Model string
	// Temperature tunes sampling; zero means provider default.
	Temperature float64
	// MaxTokens bounds the response length; zero means provider default.
	MaxTokens int
}

// Client is a text-generation provider. A successful Generate returns the
// backend's full textual response verbatim; streamed providers buffer
// internally.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// UnavailableError signals that transient failures exhausted the retry
// budget. The last underlying error is wrapped and available via Unwrap.
type UnavailableError struct {
	Attempts int
	Last     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("backend unavailable after %d attempts: %v", e.Attempts, e.Last)
}

func (e *UnavailableError) Unwrap() error { return e.Last }

// transientError marks an error as eligible for retry.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// markTransient wraps an error so IsTransient reports true for it.
func markTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether an error is worth retrying: connection
// refused/reset, timeouts, and 5xx-equivalent provider responses.
// Malformed-request and authentication failures are not transient, and
// neither is caller cancellation.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return false
}

// retryableStatus reports whether an HTTP status code counts as transient.
func retryableStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}
