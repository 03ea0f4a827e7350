// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// NewFetcher returns the fetcher selected by cfg.Fetcher.
func NewFetcher(cfg types.AcquisitionConfig) (Fetcher, error) {
	switch cfg.Fetcher {
	case types.FetcherChrome, "":
		return &ChromeFetcher{
			Headless:  cfg.Headless,
			UserAgent: cfg.UserAgent,
			SettleMin: cfg.SettleMin,
			SettleMax: cfg.SettleMax,
		}, nil
	case types.FetcherHTTP:
		return &HTTPFetcher{
			Client:       &http.Client{Timeout: cfg.Timeout},
			UserAgent:    cfg.UserAgent,
			MaxBodyBytes: cfg.MaxBodyBytes,
		}, nil
	default:
		return nil, fmt.Errorf("unknown fetcher %q", cfg.Fetcher)
	}
}

// New builds an Acquirer from cfg, opening the document cache when
// cfg.CachePath is set and pruning its expired entries. The caller closes
// the returned Acquirer.
func New(ctx context.Context, cfg types.AcquisitionConfig, logger arbor.ILogger) (*Acquirer, error) {
	f, err := NewFetcher(cfg)
	if err != nil {
		return nil, err
	}
	a := &Acquirer{
		Fetcher:     f,
		Concurrency: cfg.Concurrency,
		Timeout:     cfg.Timeout,
		Logger:      logger,
	}
	if cfg.CachePath != "" {
		cache, err := OpenCache(cfg.CachePath, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		if n, err := cache.Prune(ctx); err != nil {
			logger.Warn().Err(err).Msg("Pruning document cache failed")
		} else if n > 0 {
			logger.Debug().Int64("removed", n).Msg("Pruned document cache")
		}
		a.Cache = cache
	}
	logger.Debug().
		Str("fetcher", string(cfg.Fetcher)).
		Int("concurrency", cfg.Concurrency).
		Bool("cache", a.Cache != nil).
		Msg("Acquirer initialized")
	return a, nil
}

// Close releases the document cache, if any.
func (a *Acquirer) Close() error {
	if a.Cache == nil {
		return nil
	}
	return a.Cache.Close()
}
