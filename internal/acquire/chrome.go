// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	defaultScrollPixels = 500
	defaultScrollPause  = 200 * time.Millisecond
)

// ChromeFetcher renders pages in a fresh headless Chrome per fetch, so
// pages that build their content with JavaScript yield their final DOM.
type ChromeFetcher struct {
	Headless  bool
	UserAgent string

	// SettleMin and SettleMax bound the random pause after navigation.
	SettleMin time.Duration
	SettleMax time.Duration

	// ScrollPixels and ScrollPause control the scroll that triggers lazy
	// content. Zero values use 500px and 200ms.
	ScrollPixels int
	ScrollPause  time.Duration
}

// Fetch navigates to url, waits for the page to settle, scrolls once, and
// returns the outer HTML of the document. The browser is shut down on
// every exit path.
func (c *ChromeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", c.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
	)
	if c.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	scroll := c.ScrollPixels
	if scroll <= 0 {
		scroll = defaultScrollPixels
	}
	pause := c.ScrollPause
	if pause <= 0 {
		pause = defaultScrollPause
	}

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(settleDelay(c.SettleMin, c.SettleMax)),
		chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", scroll), nil),
		chromedp.Sleep(pause),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return html, nil
}

// settleDelay returns a uniformly random duration in [lo, hi].
func settleDelay(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return max(lo, 0)
	}
	return lo + rand.N(hi-lo+1)
}
