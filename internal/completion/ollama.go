// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/answer-engine/internal/httputil"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama calls a local Ollama server through its chat endpoint.
type Ollama struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// Complete sends prompt as a single user message and returns the reply.
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model:    o.Model,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint("/api/chat"), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Retries belong to the Retrying wrapper.
	resp, err := o.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp, "Ollama"); err != nil {
		return "", err
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding Ollama response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("Ollama: %s", out.Error)
	}
	return cleanResponse(out.Message.Content)
}

// HealthCheck verifies the server answers and has the configured model pulled.
func (o *Ollama) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint("/api/tags"), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := o.client().Do(req)
	if err != nil {
		return fmt.Errorf("contacting Ollama: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp, "Ollama"); err != nil {
		return err
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decoding Ollama tags: %w", err)
	}
	for _, m := range tags.Models {
		if sameModel(m.Name, o.Model) || sameModel(m.Model, o.Model) {
			return nil
		}
	}
	return fmt.Errorf("model %q is not available on the Ollama server", o.Model)
}

func (o *Ollama) endpoint(path string) string {
	base := strings.TrimRight(o.BaseURL, "/")
	if base == "" {
		base = defaultOllamaURL
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return base + path
}

func (o *Ollama) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return http.DefaultClient
}

// sameModel compares model names, treating an omitted tag as ":latest".
func sameModel(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return withTag(a) == withTag(b)
}

func withTag(name string) string {
	if strings.Contains(name, ":") {
		return name
	}
	return name + ":latest"
}
