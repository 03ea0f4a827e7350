// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ternarybob/arbor"
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// Retrying wraps a backend with a per-call timeout and exponential backoff.
type Retrying struct {
	Backend    Completer
	MaxRetries int
	Timeout    time.Duration
	Logger     arbor.ILogger
}

// WithRetry wraps backend so that failed calls are retried with
// exponential backoff.
func WithRetry(backend Completer, maxRetries int, timeout time.Duration, logger arbor.ILogger) *Retrying {
	return &Retrying{Backend: backend, MaxRetries: maxRetries, Timeout: timeout, Logger: logger}
}

// Complete calls the backend up to MaxRetries+1 times. Each attempt runs
// under its own Timeout.
func (r *Retrying) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			if r.Logger != nil {
				r.Logger.Warn().
					Int("attempt", attempt+1).
					Dur("backoff", backoff).
					Err(lastErr).
					Msg("Retrying completion call")
			}
			t := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return "", ctx.Err()
			case <-t.C:
			}
		}

		text, err := r.once(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", r.MaxRetries, lastErr)
}

func (r *Retrying) once(ctx context.Context, prompt string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	return r.Backend.Complete(ctx, prompt)
}

// HealthCheck delegates to the wrapped backend when it supports health
// checks and succeeds otherwise.
func (r *Retrying) HealthCheck(ctx context.Context) error {
	if hc, ok := r.Backend.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
