// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve queries search providers for each retrieval kind and
// merges their results into normalized records and a duplicate-free
// SourceSet. Provider failures degrade to zero records for that kind and
// never abort retrieval.
package retrieve

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// DefaultMargin is added to each kind's limit when querying providers.
const DefaultMargin = 2

// RawResult is one search hit as reported by a provider, before
// normalization.
type RawResult struct {
	Title   string
	URL     string
	Snippet string
	Date    string
	Source  string
}

// Provider searches one external service. Each provider (DuckDuckGo, Brave)
// implements this interface and returns ErrUnsupportedKind for kinds it
// cannot serve.
type Provider interface {
	Name() string
	Search(ctx context.Context, kind types.Kind, query string, limit int) ([]RawResult, error)
}

// SummaryFetcher returns the encyclopedia summary for a page title. ok is
// false when the page does not exist.
type SummaryFetcher interface {
	Summary(ctx context.Context, title string) (res RawResult, ok bool, err error)
}

var (
	// ErrNoProvider is recorded for a kind that has no configured provider.
	ErrNoProvider = errors.New("no provider configured for kind")

	// ErrUnsupportedKind is returned by a provider asked for a kind it
	// does not serve.
	ErrUnsupportedKind = errors.New("kind not supported by provider")
)

// Outcome is the result of one retrieval pass.
type Outcome struct {
	// Records are the normalized records in kind priority order. Every
	// record URL appears in Sources exactly once.
	Records []types.RetrievalRecord

	// Sources holds the record URLs in first-seen order.
	Sources *types.SourceSet

	// Failed maps each kind whose provider failed to its *types.ProviderError.
	Failed map[types.Kind]error
}

// Empty reports whether retrieval produced no records at all.
func (o Outcome) Empty() bool {
	return len(o.Records) == 0
}

// Aggregator runs providers kind by kind. It is safe for sequential use by
// one pipeline run at a time; every call builds its own SourceSet.
type Aggregator struct {
	// Providers maps each kind to the provider that serves it.
	Providers map[types.Kind]Provider

	// Lookup is the web provider used to resolve encyclopedia titles with a
	// site-constrained search. Summaries fetches the page summary.
	Lookup    Provider
	Summaries SummaryFetcher

	// EncyclopediaDomain constrains the title lookup, e.g. "en.wikipedia.org".
	EncyclopediaDomain string

	Margin int
	Logger arbor.ILogger
}

// Retrieve queries each kind in the order given. limits caps the records
// kept per kind; a kind with a zero limit is skipped.
func (a *Aggregator) Retrieve(ctx context.Context, query string, kinds []types.Kind, limits map[types.Kind]int) Outcome {
	out := Outcome{
		Sources: types.NewSourceSet(),
		Failed:  make(map[types.Kind]error),
	}

	for _, kind := range kinds {
		limit := limits[kind]
		if limit <= 0 {
			continue
		}
		if ctx.Err() != nil {
			a.fail(&out, kind, "", ctx.Err())
			continue
		}

		var (
			raw      []RawResult
			provider string
			err      error
		)
		if kind == types.KindEncyclopedia {
			provider = "encyclopedia"
			raw, err = a.encyclopedia(ctx, query)
		} else {
			p, ok := a.Providers[kind]
			if !ok || p == nil {
				a.fail(&out, kind, "", ErrNoProvider)
				continue
			}
			provider = p.Name()
			raw, err = p.Search(ctx, kind, query, limit+a.margin())
		}
		if err != nil {
			a.fail(&out, kind, provider, err)
			continue
		}

		added := 0
		for _, r := range raw {
			if added >= limit {
				break
			}
			rec, ok := normalize(kind, r)
			if !ok {
				continue
			}
			if !out.Sources.Add(rec.URL) {
				continue
			}
			out.Records = append(out.Records, rec)
			added++
		}

		a.Logger.Info().
			Str("kind", string(kind)).
			Str("provider", provider).
			Int("raw", len(raw)).
			Int("kept", added).
			Msg("Retrieval kind complete")
	}

	a.Logger.Info().
		Int("records", len(out.Records)).
		Int("failed_kinds", len(out.Failed)).
		Msg("Retrieval complete")
	return out
}

func (a *Aggregator) fail(out *Outcome, kind types.Kind, provider string, err error) {
	perr := &types.ProviderError{Kind: kind, Provider: provider, Err: err}
	out.Failed[kind] = perr
	a.Logger.Warn().
		Str("kind", string(kind)).
		Str("provider", provider).
		Err(err).
		Msg("Retrieval provider failed")
}

// encyclopedia resolves the first page title on the encyclopedia domain
// with a constrained web search, then fetches its summary. A missing title
// or page yields no results and no error.
func (a *Aggregator) encyclopedia(ctx context.Context, query string) ([]RawResult, error) {
	if a.Lookup == nil || a.Summaries == nil {
		return nil, ErrNoProvider
	}
	domain := a.EncyclopediaDomain
	hits, err := a.Lookup.Search(ctx, types.KindWeb, "site:"+domain+" "+query, 1+a.margin())
	if err != nil {
		return nil, err
	}

	title := ""
	for _, h := range hits {
		if title = PageTitle(domain, h); title != "" {
			break
		}
	}
	if title == "" {
		a.Logger.Debug().Str("domain", domain).Msg("No encyclopedia page found")
		return nil, nil
	}

	res, ok, err := a.Summaries.Summary(ctx, title)
	if err != nil {
		return nil, err
	}
	if !ok {
		a.Logger.Debug().Str("title", title).Msg("Encyclopedia page has no summary")
		return nil, nil
	}
	return []RawResult{res}, nil
}

func (a *Aggregator) margin() int {
	if a.Margin < 0 {
		return 0
	}
	return a.Margin
}

// PageTitle extracts an encyclopedia page title from a search hit on domain.
// The /wiki/<Title> path is preferred; otherwise the hit title is used with
// a trailing " - Wikipedia" removed. Hits on other hosts yield "".
func PageTitle(domain string, h RawResult) string {
	u, err := url.Parse(strings.TrimSpace(h.URL))
	if err != nil || !strings.EqualFold(u.Hostname(), domain) {
		return ""
	}
	if rest, ok := strings.CutPrefix(u.Path, "/wiki/"); ok && rest != "" {
		return rest
	}
	title := strings.TrimSpace(h.Title)
	for _, suffix := range []string{" - Wikipedia", " — Wikipedia", " – Wikipedia"} {
		title = strings.TrimSuffix(title, suffix)
	}
	return strings.TrimSpace(title)
}

// normalize trims a raw result and canonicalizes its URL. Results without
// an absolute http(s) URL are rejected.
func normalize(kind types.Kind, r RawResult) (types.RetrievalRecord, bool) {
	canonical, host, ok := CanonicalURL(r.URL)
	if !ok {
		return types.RetrievalRecord{}, false
	}
	return types.RetrievalRecord{
		Kind:       kind,
		Title:      collapseSpace(r.Title),
		URL:        canonical,
		Snippet:    collapseSpace(r.Snippet),
		Domain:     strings.TrimPrefix(strings.ToLower(host), "www."),
		Date:       strings.TrimSpace(r.Date),
		SourceName: strings.TrimSpace(r.Source),
	}, true
}

// CanonicalURL trims raw, drops any fragment, and lowercases the scheme and
// host. It reports false for URLs that are not absolute http(s).
func CanonicalURL(raw string) (canonical, host string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", false
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", false
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), u.Hostname(), true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
