// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic calls the Claude Messages API.
type Anthropic struct {
	client    anthropic.Client
	apiKey    string
	model     string
	maxTokens int64
}

// NewAnthropic builds a Claude backend. baseURL may be empty.
func NewAnthropic(apiKey, baseURL, model string, maxTokens int) *Anthropic {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		apiKey:    apiKey,
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// Complete sends prompt as one user message and joins the text blocks of
// the reply.
func (a *Anthropic) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return cleanResponse(text.String())
}

// HealthCheck reports whether the backend has credentials. The Messages API
// has no free probe, so reachability is left to the first call.
func (a *Anthropic) HealthCheck(context.Context) error {
	if strings.TrimSpace(a.apiKey) == "" {
		return errors.New("Anthropic API key is not configured (set completion.api_key or .secrets/anthropic-api-key)")
	}
	return nil
}
