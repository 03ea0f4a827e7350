// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func page(text string) string {
	return "<html><body><p>" + text + "</p></body></html>"
}

// --- Worker pool ---

func TestAcquireRepairsByURLUnderLatency(t *testing.T) {
	latency := map[string]time.Duration{
		"https://a.example/": 50 * time.Millisecond,
		"https://b.example/": 5 * time.Millisecond,
		"https://c.example/": 20 * time.Millisecond,
	}
	var mu sync.Mutex
	var order []string
	f := FetcherFunc(func(ctx context.Context, url string) (string, error) {
		time.Sleep(latency[url])
		mu.Lock()
		order = append(order, url)
		mu.Unlock()
		return page("text of " + url), nil
	})

	a := &Acquirer{Fetcher: f, Concurrency: 5, Logger: arbor.NewLogger()}
	urls := []string{"https://a.example/", "https://b.example/", "https://c.example/"}
	docs, errs := a.AcquireAll(context.Background(), urls)

	require.Empty(t, errs)
	require.Len(t, docs, 3)
	for i, u := range urls {
		assert.Equal(t, u, docs[i].URL)
		assert.Equal(t, "text of "+u, docs[i].Body)
	}
	// Completion order differs from input order.
	assert.Equal(t, []string{"https://b.example/", "https://c.example/", "https://a.example/"}, order)

	got := a.Acquire(context.Background(), urls)
	assert.Equal(t, map[string]string{
		"https://a.example/": "text of https://a.example/",
		"https://b.example/": "text of https://b.example/",
		"https://c.example/": "text of https://c.example/",
	}, got)
}

func TestAcquireIsolatesFailures(t *testing.T) {
	boom := errors.New("net::ERR_NAME_NOT_RESOLVED")
	f := FetcherFunc(func(ctx context.Context, url string) (string, error) {
		if strings.Contains(url, "bad") {
			return "", boom
		}
		return page("ok " + url), nil
	})

	a := &Acquirer{Fetcher: f, Concurrency: 2, Logger: arbor.NewLogger()}
	urls := []string{"https://good1.example/", "https://bad.example/", "https://good2.example/"}
	docs, errs := a.AcquireAll(context.Background(), urls)

	require.Len(t, docs, 3)
	assert.Equal(t, "ok https://good1.example/", docs[0].Body)
	assert.Equal(t, "https://bad.example/", docs[1].URL)
	assert.Empty(t, docs[1].Body)
	assert.Equal(t, "ok https://good2.example/", docs[2].Body)

	require.Len(t, errs, 1)
	var ferr *types.FetchError
	require.ErrorAs(t, errs[0], &ferr)
	assert.Equal(t, "https://bad.example/", ferr.URL)
	assert.ErrorIs(t, errs[0], boom)
}

func TestAcquireRespectsConcurrencyCeiling(t *testing.T) {
	var inFlight, peak int32
	f := FetcherFunc(func(ctx context.Context, url string) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return page(url), nil
	})

	urls := make([]string, 12)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://site%d.example/", i)
	}
	a := &Acquirer{Fetcher: f, Concurrency: 3, Logger: arbor.NewLogger()}
	docs, errs := a.AcquireAll(context.Background(), urls)

	assert.Empty(t, errs)
	assert.Len(t, docs, 12)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Greater(t, atomic.LoadInt32(&peak), int32(1))
}

func TestAcquirePerFetchTimeout(t *testing.T) {
	f := FetcherFunc(func(ctx context.Context, url string) (string, error) {
		if strings.Contains(url, "slow") {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return page("fast"), nil
	})

	a := &Acquirer{Fetcher: f, Timeout: 20 * time.Millisecond, Logger: arbor.NewLogger()}
	got := a.Acquire(context.Background(), []string{"https://slow.example/", "https://fast.example/"})

	assert.Equal(t, "", got["https://slow.example/"])
	assert.Equal(t, "fast", got["https://fast.example/"])
}

func TestAcquireCancelledContext(t *testing.T) {
	var calls int32
	f := FetcherFunc(func(ctx context.Context, url string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return page("x"), nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &Acquirer{Fetcher: f, Logger: arbor.NewLogger()}
	docs, errs := a.AcquireAll(ctx, []string{"https://a.example/", "https://b.example/"})

	assert.Len(t, docs, 2)
	assert.Len(t, errs, 2)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestAcquireEmpty(t *testing.T) {
	a := &Acquirer{Logger: arbor.NewLogger()}
	docs, errs := a.AcquireAll(context.Background(), nil)
	assert.Empty(t, docs)
	assert.Empty(t, errs)
}

// --- Text extraction ---

func TestExtractText(t *testing.T) {
	html := `<html><head><title>ignored</title><script>var x = 1;</script></head>
<body>
  <nav><a href="/">Home</a></nav>
  <h1>Paris</h1>
  <p>Paris is the   capital
     of France.</p>
  <div>not kept</div>
  <h2>History</h2>
  <p></p>
  <p>Founded in the <b>3rd century</b> BC.</p>
  <h3>Climate</h3>
  <h4>not kept either</h4>
</body></html>`

	got, err := ExtractText(html)
	require.NoError(t, err)
	assert.Equal(t, "Paris Paris is the capital of France. History Founded in the 3rd century BC. Climate", got)
}

func TestExtractTextEmpty(t *testing.T) {
	got, err := ExtractText("   ")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ExtractText("<html><body><div>no paragraphs</div></body></html>")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractTextNoLengthCap(t *testing.T) {
	long := strings.Repeat("word ", 20000)
	got, err := ExtractText(page(long))
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(long), got)
}

// --- HTTP fetcher ---

func TestHTTPFetcher(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "test-agent", r.UserAgent())
			fmt.Fprint(w, page("hello"))
		case "/big":
			fmt.Fprint(w, strings.Repeat("x", 100))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	h := &HTTPFetcher{Client: ts.Client(), UserAgent: "test-agent"}
	body, err := h.Fetch(context.Background(), ts.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, page("hello"), body)

	_, err = h.Fetch(context.Background(), ts.URL+"/missing")
	assert.ErrorContains(t, err, "404")

	h.MaxBodyBytes = 10
	body, err = h.Fetch(context.Background(), ts.URL+"/big")
	require.NoError(t, err)
	assert.Len(t, body, 10)
}

func TestSettleDelay(t *testing.T) {
	lo, hi := 500*time.Millisecond, time.Second
	for i := 0; i < 100; i++ {
		d := settleDelay(lo, hi)
		assert.GreaterOrEqual(t, d, lo)
		assert.LessOrEqual(t, d, hi)
	}
	assert.Equal(t, 300*time.Millisecond, settleDelay(300*time.Millisecond, 0))
	assert.Equal(t, time.Duration(0), settleDelay(0, 0))
}

func TestNewFetcher(t *testing.T) {
	cfg := types.DefaultConfig().Acquisition
	f, err := NewFetcher(cfg)
	require.NoError(t, err)
	chrome, ok := f.(*ChromeFetcher)
	require.True(t, ok)
	assert.True(t, chrome.Headless)
	assert.Equal(t, 500*time.Millisecond, chrome.SettleMin)

	cfg.Fetcher = types.FetcherHTTP
	f, err = NewFetcher(cfg)
	require.NoError(t, err)
	assert.IsType(t, &HTTPFetcher{}, f)

	cfg.Fetcher = "lynx"
	_, err = NewFetcher(cfg)
	assert.Error(t, err)
}

// --- Cache ---

func TestAcquireUsesCache(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache", "pages.db"), time.Hour)
	require.NoError(t, err)
	defer cache.Close()

	var calls int32
	f := FetcherFunc(func(ctx context.Context, url string) (string, error) {
		atomic.AddInt32(&calls, 1)
		if strings.Contains(url, "empty") {
			return "<html></html>", nil
		}
		return page("fetched " + url), nil
	})
	a := &Acquirer{Fetcher: f, Cache: cache, Logger: arbor.NewLogger()}
	urls := []string{"https://a.example/", "https://empty.example/"}

	first := a.Acquire(context.Background(), urls)
	second := a.Acquire(context.Background(), urls)

	assert.Equal(t, first, second)
	assert.Equal(t, "fetched https://a.example/", second["https://a.example/"])
	// a is served from the cache; the empty page is never stored.
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCacheExpiry(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "pages.db"), time.Hour)
	require.NoError(t, err)
	defer cache.Close()

	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "https://a.example/", "old text"))
	require.NoError(t, cache.Put(ctx, "https://a.example/", "new text"))

	text, ok, err := cache.Get(ctx, "https://a.example/")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new text", text)

	_, ok, err = cache.Get(ctx, "https://missing.example/")
	require.NoError(t, err)
	assert.False(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok, err = cache.Get(ctx, "https://a.example/")
	require.NoError(t, err)
	assert.False(t, ok, "entry older than the TTL is a miss")

	n, err := cache.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNewOpensCache(t *testing.T) {
	cfg := types.DefaultConfig().Acquisition
	cfg.Fetcher = types.FetcherHTTP
	cfg.CachePath = filepath.Join(t.TempDir(), "pages.db")

	a, err := New(context.Background(), cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Cache)
	assert.Equal(t, 5, a.Concurrency)
	assert.Equal(t, 45*time.Second, a.Timeout)
}
