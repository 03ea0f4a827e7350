// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// braveAPIBase is the Brave Search API root. Package-level var for test
// substitution.
var braveAPIBase = "https://api.search.brave.com/res/v1"

// braveMaxCount is the largest count the Brave API accepts.
const braveMaxCount = 20

// Brave queries the Brave Search API for web and news results.
type Brave struct {
	APIKey  string
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewBrave returns a Brave provider limited to rps requests per second.
func NewBrave(apiKey string, client *http.Client, rps float64) *Brave {
	return &Brave{APIKey: apiKey, Client: client, Limiter: newLimiter(rps)}
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Age         string `json:"age"`
	PageAge     string `json:"page_age"`
	MetaURL     struct {
		Hostname string `json:"hostname"`
	} `json:"meta_url"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type braveWebResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

type braveNewsResponse struct {
	Results []braveResult `json:"results"`
}

// Name returns the provider name.
func (b *Brave) Name() string { return "brave" }

// Search calls the web or news endpoint for kind.
func (b *Brave) Search(ctx context.Context, kind types.Kind, query string, limit int) ([]RawResult, error) {
	if strings.TrimSpace(b.APIKey) == "" {
		return nil, errors.New("brave: API key is missing")
	}

	var path string
	switch kind {
	case types.KindWeb:
		path = "/web/search"
	case types.KindNews:
		path = "/news/search"
	default:
		return nil, fmt.Errorf("brave %s: %w", kind, ErrUnsupportedKind)
	}

	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("count", strconv.Itoa(min(limit, braveMaxCount)))
	}

	if err := wait(ctx, b.Limiter); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, braveAPIBase+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("querying Brave: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp, "Brave"); err != nil {
		return nil, err
	}

	var items []braveResult
	if kind == types.KindNews {
		var payload braveNewsResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decoding Brave response: %w", err)
		}
		items = payload.Results
	} else {
		var payload braveWebResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decoding Brave response: %w", err)
		}
		items = payload.Web.Results
	}

	results := make([]RawResult, 0, len(items))
	for _, it := range items {
		r := RawResult{
			Title:   it.Title,
			URL:     it.URL,
			Snippet: it.Description,
			Date:    it.PageAge,
			Source:  it.Profile.Name,
		}
		if r.Date == "" {
			r.Date = it.Age
		}
		if r.Source == "" {
			r.Source = it.MetaURL.Hostname
		}
		results = append(results, r)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}
