// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire loads the pages behind retrieved URLs and reduces each to
// plain text. Fetches run on a bounded worker pool; every fetch is isolated
// so one failing page yields an empty body without affecting the others.
package acquire

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// DefaultConcurrency is the worker count used when none is configured.
const DefaultConcurrency = 5

// Fetcher loads the HTML of one page. Implementations release every
// resource they acquire (browser processes, connections) on all exit paths.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (html string, err error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (string, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// Acquirer fetches pages concurrently and extracts their text.
type Acquirer struct {
	Fetcher     Fetcher
	Concurrency int

	// Timeout bounds each fetch. Zero leaves fetches bounded only by ctx.
	Timeout time.Duration

	// Cache, when set, serves fresh page text without fetching and stores
	// newly extracted text.
	Cache *Cache

	Logger arbor.ILogger
}

// Acquire returns the extracted text of every URL, keyed by URL. Failed
// fetches map to "".
func (a *Acquirer) Acquire(ctx context.Context, urls []string) map[string]string {
	docs, _ := a.AcquireAll(ctx, urls)
	out := make(map[string]string, len(docs))
	for _, d := range docs {
		out[d.URL] = d.Body
	}
	return out
}

// AcquireAll fetches urls on at most Concurrency workers. Documents are
// returned in input order regardless of completion order. The returned
// errors are the *types.FetchError of each failed URL, in input order.
func (a *Acquirer) AcquireAll(ctx context.Context, urls []string) ([]types.Document, []error) {
	docs := make([]types.Document, len(urls))
	errs := make([]error, len(urls))
	if len(urls) == 0 {
		return docs, nil
	}

	workers := a.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	workers = min(workers, len(urls))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				body, err := a.fetchOne(ctx, urls[i])
				docs[i] = types.Document{URL: urls[i], Body: body}
				if err != nil {
					errs[i] = err
				}
			}
		}()
	}
	for i := range urls {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var failed []error
	fetched := 0
	for i, err := range errs {
		if err != nil {
			failed = append(failed, err)
		} else if docs[i].Body != "" {
			fetched++
		}
	}
	a.Logger.Info().
		Int("urls", len(urls)).
		Int("with_text", fetched).
		Int("failed", len(failed)).
		Int("workers", workers).
		Msg("Acquisition complete")
	return docs, failed
}

// fetchOne serves url from the cache or fetches and extracts it. Errors are
// returned as *types.FetchError.
func (a *Acquirer) fetchOne(ctx context.Context, url string) (string, error) {
	if a.Cache != nil {
		text, ok, err := a.Cache.Get(ctx, url)
		switch {
		case err != nil:
			a.Logger.Warn().Str("url", url).Err(err).Msg("Document cache read failed")
		case ok:
			a.Logger.Debug().Str("url", url).Msg("Document cache hit")
			return text, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return "", a.failed(url, err)
	}

	fctx := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	start := time.Now()
	html, err := a.Fetcher.Fetch(fctx, url)
	if err != nil {
		return "", a.failed(url, err)
	}
	text, err := ExtractText(html)
	if err != nil {
		return "", a.failed(url, err)
	}

	a.Logger.Info().
		Str("url", url).
		Int("chars", len(text)).
		Dur("elapsed", time.Since(start)).
		Str("preview", preview(text, 100)).
		Msg("Page fetched")

	if a.Cache != nil && text != "" {
		if err := a.Cache.Put(ctx, url, text); err != nil {
			a.Logger.Warn().Str("url", url).Err(err).Msg("Document cache write failed")
		}
	}
	return text, nil
}

func (a *Acquirer) failed(url string, err error) error {
	ferr := &types.FetchError{URL: url, Err: err}
	a.Logger.Warn().Str("url", url).Err(err).Msg("Page fetch failed")
	return ferr
}

// preview returns at most n runes of s.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
