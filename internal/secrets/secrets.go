// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the trimmed file contents are the value.
//
// Recognized keys: anthropic-api-key, gemini-api-key, openai-api-key, brave-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Key names understood by the completion backends and retrieval providers.
const (
	AnthropicAPIKey = "anthropic-api-key"
	GeminiAPIKey    = "gemini-api-key"
	OpenAIAPIKey    = "openai-api-key"
	BraveAPIKey     = "brave-api-key"
)

// Secrets maps key names to values.
type Secrets map[string]string

// Load reads all regular, non-hidden files in dir. A missing directory is not
// an error and yields an empty set. Unreadable files are reported as
// warnings and skipped.
func Load(dir string) (Secrets, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil, nil
		}
		return nil, nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	var warnings []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not read secret %s: %v", name, err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, warnings, nil
}

// Resolve returns explicit when it is non-empty, otherwise the secret stored
// under key.
func (s Secrets) Resolve(key, explicit string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	return s[key]
}

// Names returns the loaded key names in sorted order. Values are never
// exposed so the result is safe to log.
func (s Secrets) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
