// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini calls the Gemini API through the genai SDK.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// NewGemini builds a Gemini backend. baseURL may be empty.
func NewGemini(ctx context.Context, apiKey, baseURL, model string, maxTokens int) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("Gemini API key is not configured (set completion.api_key or .secrets/gemini-api-key)")
	}
	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, maxTokens: int32(maxTokens)}, nil
}

// Complete generates a single candidate for prompt.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{CandidateCount: 1}
	if g.maxTokens > 0 {
		cfg.MaxOutputTokens = g.maxTokens
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	return cleanResponse(resp.Text())
}
