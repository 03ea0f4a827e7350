// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/pdiddy/answer-engine/internal/secrets"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// NewProviders builds the search provider for each non-encyclopedia kind.
// Web uses cfg.WebProvider. News uses Brave when a Brave key is available
// and recent DuckDuckGo results otherwise.
func NewProviders(cfg types.RetrievalConfig, s secrets.Secrets, logger arbor.ILogger) (map[types.Kind]Provider, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	braveKey := s.Resolve(secrets.BraveAPIKey, cfg.BraveAPIKey)

	var ddg *DuckDuckGo
	duck := func() Provider {
		if ddg == nil {
			ddg = NewDuckDuckGo(client, cfg.UserAgent, cfg.RequestsPerSecond)
		}
		return ddg
	}
	var brv *Brave
	brave := func() Provider {
		if brv == nil {
			brv = NewBrave(braveKey, client, cfg.RequestsPerSecond)
		}
		return brv
	}

	providers := make(map[types.Kind]Provider)
	switch cfg.WebProvider {
	case "", "duckduckgo":
		providers[types.KindWeb] = duck()
	case "brave":
		if braveKey == "" {
			return nil, fmt.Errorf("web provider brave requires retrieval.brave_api_key or .secrets/%s", secrets.BraveAPIKey)
		}
		providers[types.KindWeb] = brave()
	default:
		return nil, fmt.Errorf("unknown web provider %q", cfg.WebProvider)
	}

	if braveKey != "" {
		providers[types.KindNews] = brave()
	} else {
		providers[types.KindNews] = duck()
	}

	for kind, p := range providers {
		logger.Debug().Str("kind", string(kind)).Str("provider", p.Name()).Msg("Retrieval provider configured")
	}
	return providers, nil
}

// NewAggregator wires the configured providers, the encyclopedia title
// lookup (the web provider), and the Wikipedia summary fetcher.
func NewAggregator(cfg types.RetrievalConfig, s secrets.Secrets, logger arbor.ILogger) (*Aggregator, error) {
	providers, err := NewProviders(cfg, s, logger)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: cfg.Timeout}
	return &Aggregator{
		Providers:          providers,
		Lookup:             providers[types.KindWeb],
		Summaries:          NewWikipedia(cfg.EncyclopediaDomain, client, cfg.UserAgent),
		EncyclopediaDomain: cfg.EncyclopediaDomain,
		Margin:             cfg.Margin,
		Logger:             logger,
	}, nil
}

// Kinds parses the configured kind names in order.
func Kinds(cfg types.RetrievalConfig) ([]types.Kind, error) {
	kinds := make([]types.Kind, 0, len(cfg.Kinds))
	for _, name := range cfg.Kinds {
		k, err := types.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Limits converts the configured per-kind limits.
func Limits(cfg types.RetrievalConfig) map[types.Kind]int {
	limits := make(map[types.Kind]int, len(cfg.Limits))
	for name, n := range cfg.Limits {
		if k, err := types.ParseKind(name); err == nil {
			limits[k] = n
		}
	}
	return limits
}
