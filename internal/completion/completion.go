// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package completion provides the text completion capability used by the
// rewriter, the extractor, and the synthesizer. Each backend (Ollama,
// Anthropic, Gemini, OpenAI) implements Completer; backends that can probe
// their service also implement HealthChecker.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/pdiddy/answer-engine/internal/secrets"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Completer turns a prompt into response text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// HealthChecker is implemented by backends that can verify, before a run,
// that the model is reachable and usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Func adapts a plain function to Completer.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrEmptyResponse is returned when a backend answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// New builds the backend selected by cfg, wrapped with retries. API keys
// missing from cfg are resolved from s.
func New(ctx context.Context, cfg types.CompletionConfig, s secrets.Secrets, logger arbor.ILogger) (Completer, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	var backend Completer
	switch cfg.Backend {
	case types.BackendOllama, "":
		backend = &Ollama{BaseURL: cfg.BaseURL, Model: cfg.Model, Client: client}
	case types.BackendAnthropic:
		backend = NewAnthropic(s.Resolve(secrets.AnthropicAPIKey, cfg.APIKey), cfg.BaseURL, cfg.Model, cfg.MaxTokens)
	case types.BackendGemini:
		g, err := NewGemini(ctx, s.Resolve(secrets.GeminiAPIKey, cfg.APIKey), cfg.BaseURL, cfg.Model, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		backend = g
	case types.BackendOpenAI:
		backend = NewOpenAI(s.Resolve(secrets.OpenAIAPIKey, cfg.APIKey), cfg.BaseURL, cfg.Model, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unknown completion backend %q", cfg.Backend)
	}

	logger.Debug().
		Str("backend", string(cfg.Backend)).
		Str("model", cfg.Model).
		Dur("timeout", cfg.Timeout).
		Int("max_retries", cfg.MaxRetries).
		Msg("Completion backend initialized")

	return WithRetry(backend, cfg.MaxRetries, cfg.Timeout, logger), nil
}

// cleanResponse trims text and reports ErrEmptyResponse when nothing remains.
func cleanResponse(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
