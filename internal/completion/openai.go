// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI calls an OpenAI-compatible chat completions endpoint. With BaseURL
// set it also serves local gateways such as vLLM or Ollama's /v1 API.
type OpenAI struct {
	client    openai.Client
	apiKey    string
	baseURL   string
	model     string
	maxTokens int64
}

// NewOpenAI builds an OpenAI-compatible backend. baseURL may be empty.
func NewOpenAI(apiKey, baseURL, model string, maxTokens int) *OpenAI {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{
		client:    openai.NewClient(opts...),
		apiKey:    apiKey,
		baseURL:   baseURL,
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// Complete sends prompt as one user message and returns the first choice.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if o.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(o.maxTokens)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return cleanResponse(resp.Choices[0].Message.Content)
}

// HealthCheck requires an API key unless a custom endpoint is configured.
func (o *OpenAI) HealthCheck(context.Context) error {
	if strings.TrimSpace(o.apiKey) == "" && o.baseURL == "" {
		return errors.New("OpenAI API key is not configured (set completion.api_key or .secrets/openai-api-key)")
	}
	return nil
}
