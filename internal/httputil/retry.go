// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the retrieval providers
// and the completion backends.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay is the first backoff interval after a throttled response.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryDelay caps a single backoff interval, including server-supplied
// Retry-After values.
var MaxRetryDelay = 30 * time.Second

const defaultMaxRetries = 3

// DoWithRetry executes req and retries on HTTP 429 and 503 with exponential
// backoff starting at RetryBaseDelay. A Retry-After header given in seconds
// replaces the computed interval. Throttled response bodies are drained and
// closed before sleeping.
//
// When maxRetries is 0 the default (3) is used. A context cancelled during a
// wait returns ctx.Err(). After the last attempt the throttled response is
// returned unchanged so the caller can report its status.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if client == nil {
		client = http.DefaultClient
	}

	backoff := RetryBaseDelay
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := backoff
		if d, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
			wait = d
		}
		if wait > MaxRetryDelay {
			wait = MaxRetryDelay
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		backoff *= 2
	}
}

// CheckStatus returns an error describing resp when its status is not 2xx.
// A short prefix of the body is included to aid diagnosis.
func CheckStatus(resp *http.Response, what string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if len(body) == 0 {
		return fmt.Errorf("%s returned HTTP %d", what, resp.StatusCode)
	}
	return fmt.Errorf("%s returned HTTP %d: %s", what, resp.StatusCode, string(body))
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// retryAfter parses a Retry-After header expressed in whole seconds.
func retryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
