// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// duckDuckGoURL is the DuckDuckGo lite HTML endpoint. Package-level var for
// test substitution.
var duckDuckGoURL = "https://lite.duckduckgo.com/lite/"

// DuckDuckGo scrapes the DuckDuckGo lite HTML page. It serves web results
// and, restricted to the past week, news.
type DuckDuckGo struct {
	Client    *http.Client
	UserAgent string
	Limiter   *rate.Limiter
}

// NewDuckDuckGo returns a DuckDuckGo provider limited to rps requests per
// second. rps <= 0 disables limiting.
func NewDuckDuckGo(client *http.Client, userAgent string, rps float64) *DuckDuckGo {
	return &DuckDuckGo{Client: client, UserAgent: userAgent, Limiter: newLimiter(rps)}
}

// Name returns the provider name.
func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Search posts query to the lite endpoint and parses up to limit results.
func (d *DuckDuckGo) Search(ctx context.Context, kind types.Kind, query string, limit int) ([]RawResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is empty")
	}
	form := url.Values{}
	form.Set("q", query)
	switch kind {
	case types.KindWeb:
	case types.KindNews:
		form.Set("df", "w")
	default:
		return nil, fmt.Errorf("duckduckgo %s: %w", kind, ErrUnsupportedKind)
	}

	if err := wait(ctx, d.Limiter); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, duckDuckGoURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, d.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("querying DuckDuckGo: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp, "DuckDuckGo"); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing DuckDuckGo HTML: %w", err)
	}
	return parseLiteResults(doc, limit), nil
}

// parseLiteResults reads result links and their snippets from the lite
// results table. Snippets are paired with links by position.
func parseLiteResults(doc *goquery.Document, limit int) []RawResult {
	var snippets []string
	doc.Find("td.result-snippet").Each(func(_ int, s *goquery.Selection) {
		snippets = append(snippets, strings.TrimSpace(s.Text()))
	})

	var results []RawResult
	doc.Find("a.result-link").EachWithBreak(func(i int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		r := RawResult{
			Title: strings.TrimSpace(s.Text()),
			URL:   unwrapRedirect(href),
		}
		if i < len(snippets) {
			r.Snippet = snippets[i]
		}
		if r.URL != "" && r.Title != "" {
			results = append(results, r)
		}
		return limit <= 0 || len(results) < limit
	})
	return results
}

// unwrapRedirect returns the target of a DuckDuckGo /l/?uddg= redirect link,
// or href unchanged.
func unwrapRedirect(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// wait blocks on l when it is set.
func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return nil
}
