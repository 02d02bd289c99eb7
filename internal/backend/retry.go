package backend

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Retrier wraps a Client with a transient-failure retry budget and
// exponential backoff (1s, 2s, 4s, ...). Permanent failures - malformed
// requests, authentication problems - surface immediately; exhausting the
// budget yields an UnavailableError carrying the last underlying error.
type Retrier struct {
	client     Client
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// NewRetrier wraps client with maxRetries retry attempts on top of the
// initial one. A nil logger is replaced with a no-op logger.
func NewRetrier(client Client, maxRetries int, logger *zap.Logger) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{
		client:     client,
		maxRetries: maxRetries,
		backoff:    time.Second,
		logger:     logger,
	}
}

func (r *Retrier) Name() string { return r.client.Name() }

// Unwrap exposes the wrapped client.
func (r *Retrier) Unwrap() Client { return r.client }

// Generate calls the wrapped client, retrying transient failures until the
// budget is spent.
func (r *Retrier) Generate(ctx context.Context, req Request) (string, error) {
	var last error
	attempts := r.maxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := r.backoff << (attempt - 2)
			r.logger.Debug("retrying backend call",
				zap.String("backend", r.client.Name()),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", &UnavailableError{Attempts: attempt - 1, Last: last}
			}
		}

		text, err := r.client.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		if !IsTransient(err) {
			return "", err
		}

		last = err
		r.logger.Warn("transient backend failure",
			zap.String("backend", r.client.Name()),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	return "", &UnavailableError{Attempts: attempts, Last: last}
}
