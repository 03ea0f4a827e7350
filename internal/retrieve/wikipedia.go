// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/answer-engine/internal/httputil"
)

// Wikipedia fetches page summaries from the MediaWiki REST API.
type Wikipedia struct {
	// BaseURL is the wiki root, e.g. "https://en.wikipedia.org".
	BaseURL   string
	Client    *http.Client
	UserAgent string
}

// NewWikipedia returns a summary fetcher for the wiki served at domain.
func NewWikipedia(domain string, client *http.Client, userAgent string) *Wikipedia {
	return &Wikipedia{BaseURL: "https://" + domain, Client: client, UserAgent: userAgent}
}

type wikiSummary struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Summary returns the lead extract of the page titled title. A missing page
// reports ok=false without error.
func (w *Wikipedia) Summary(ctx context.Context, title string) (RawResult, bool, error) {
	title = strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	if title == "" {
		return RawResult{}, false, nil
	}
	base := strings.TrimRight(w.BaseURL, "/")
	endpoint := base + "/api/rest_v1/page/summary/" + url.PathEscape(title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RawResult{}, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if w.UserAgent != "" {
		req.Header.Set("User-Agent", w.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, w.Client, req, 0)
	if err != nil {
		return RawResult{}, false, fmt.Errorf("querying Wikipedia: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return RawResult{}, false, nil
	}
	if err := httputil.CheckStatus(resp, "Wikipedia"); err != nil {
		return RawResult{}, false, err
	}

	var s wikiSummary
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return RawResult{}, false, fmt.Errorf("decoding Wikipedia summary: %w", err)
	}

	page := s.ContentURLs.Desktop.Page
	if page == "" {
		page = base + "/wiki/" + url.PathEscape(title)
	}
	if strings.TrimSpace(s.Extract) == "" {
		return RawResult{}, false, nil
	}
	return RawResult{
		Title:   s.Title,
		URL:     page,
		Snippet: s.Extract,
		Date:    s.Timestamp,
		Source:  "Wikipedia",
	}, true, nil
}
