// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract asks the completion backend to pull query-relevant facts
// out of each acquired document. A document that cannot be extracted is
// logged and dropped; extraction never aborts a run.
package extract

import (
	"bytes"
	"context"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/ternarybob/arbor"

	"github.com/pdiddy/answer-engine/internal/completion"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Stage is the stage name recorded on extraction CompletionErrors.
const Stage = "extract"

var extractPromptTmpl = template.Must(template.New("extract").Parse(`Extract the information related to '{{.Query}}' from the text below.
Keep only facts that help answer the query: names, numbers, dates, and definitions.
Write plain prose without headings.

Source: {{.URL}}

Text: {{.Body}}`))

// Extractor produces one extract per document.
type Extractor struct {
	Completer completion.Completer

	// MaxInputChars truncates bodies before prompting. Zero disables
	// truncation.
	MaxInputChars int

	Logger arbor.ILogger
}

// New returns an Extractor using c.
func New(c completion.Completer, cfg types.ExtractionConfig, logger arbor.ILogger) *Extractor {
	return &Extractor{Completer: c, MaxInputChars: cfg.MaxInputChars, Logger: logger}
}

// Extract returns the facts in body that relate to query. An empty body is
// not sent to the model and yields "". The model's reply is returned
// verbatim.
func (e *Extractor) Extract(ctx context.Context, query, url, body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", nil
	}

	truncated := truncate(body, e.MaxInputChars)
	if len(truncated) < len(body) {
		e.Logger.Debug().
			Str("url", url).
			Int("chars", utf8.RuneCountInString(body)).
			Int("limit", e.MaxInputChars).
			Msg("Document truncated for extraction")
	}

	var buf bytes.Buffer
	if err := extractPromptTmpl.Execute(&buf, struct{ Query, URL, Body string }{query, url, truncated}); err != nil {
		return "", &types.CompletionError{Stage: Stage, URL: url, Err: err}
	}

	text, err := e.Completer.Complete(ctx, buf.String())
	if err != nil {
		return "", &types.CompletionError{Stage: Stage, URL: url, Err: err}
	}
	return text, nil
}

// ExtractAll runs Extract over docs in order. It returns the non-empty
// extracts, in document order, and the errors of the documents that
// failed.
func (e *Extractor) ExtractAll(ctx context.Context, query string, docs []types.Document) ([]types.Extract, []error) {
	var (
		extracts []types.Extract
		errs     []error
	)
	for _, d := range docs {
		if strings.TrimSpace(d.Body) == "" {
			continue
		}
		text, err := e.Extract(ctx, query, d.URL, d.Body)
		if err != nil {
			e.Logger.Warn().Str("url", d.URL).Err(err).Msg("Extraction failed")
			errs = append(errs, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			e.Logger.Debug().Str("url", d.URL).Msg("Extraction returned nothing relevant")
			continue
		}
		extracts = append(extracts, types.Extract{URL: d.URL, Text: text})
	}
	e.Logger.Info().
		Int("documents", len(docs)).
		Int("extracts", len(extracts)).
		Int("failed", len(errs)).
		Msg("Extraction complete")
	return extracts, errs
}

// truncate cuts s to at most n runes. n <= 0 returns s.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
