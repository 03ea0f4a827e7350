// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/answer-engine/internal/httputil"
)

// DefaultMaxBodyBytes caps the HTML read by HTTPFetcher.
const DefaultMaxBodyBytes = 2 << 20

// HTTPFetcher loads pages with a plain GET. It does not run JavaScript.
type HTTPFetcher struct {
	Client       *http.Client
	UserAgent    string
	MaxBodyBytes int64
}

// Fetch returns the body of url. Non-2xx responses are errors; bodies
// longer than MaxBodyBytes are truncated.
func (h *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, h.Client, req, 0)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp, "page"); err != nil {
		return "", err
	}

	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	return string(body), nil
}
