package backend

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"google.golang.org/genai"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "marked", err: markTransient(errors.New("boom")), want: true},
		{name: "marked_wrapped", err: fmt.Errorf("outer: %w", markTransient(errors.New("boom"))), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "conn_refused", err: fmt.Errorf("dial: %w", syscall.ECONNREFUSED), want: true},
		{name: "conn_reset", err: syscall.ECONNRESET, want: true},
		{name: "plain", err: errors.New("bad request"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarkTransientNil(t *testing.T) {
	if markTransient(nil) != nil {
		t.Error("markTransient(nil) should stay nil")
	}
}

func TestRetryableStatus(t *testing.T) {
	for code, want := range map[int]bool{
		200: false, 400: false, 401: false, 404: false,
		408: true, 429: true, 500: true, 502: true, 503: true,
	} {
		if got := retryableStatus(code); got != want {
			t.Errorf("retryableStatus(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestUnavailableErrorUnwrap(t *testing.T) {
	last := errors.New("connection refused")
	err := &UnavailableError{Attempts: 3, Last: last}

	if !errors.Is(err, last) {
		t.Error("UnavailableError should wrap the last error")
	}
	if msg := err.Error(); msg != "backend unavailable after 3 attempts: connection refused" {
		t.Errorf("Error() = %q", msg)
	}
}

func TestClassifyGeminiError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "rate_limited", err: genai.APIError{Code: 429, Message: "quota"}, want: true},
		{name: "server_error", err: genai.APIError{Code: 500, Message: "internal"}, want: true},
		{name: "bad_auth", err: genai.APIError{Code: 401, Message: "key"}, want: false},
		{name: "bad_request", err: genai.APIError{Code: 400, Message: "malformed"}, want: false},
		{name: "network_timeout", err: context.DeadlineExceeded, want: true},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(classifyGeminiError(tt.err)); got != tt.want {
				t.Errorf("transient = %v, want %v", got, tt.want)
			}
		})
	}
}
