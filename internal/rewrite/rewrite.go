// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rewrite turns a user's free-text query into a concise search
// query. Rewriting is best effort: any failure yields the raw query.
package rewrite

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	"github.com/ternarybob/arbor"

	"github.com/pdiddy/answer-engine/internal/completion"
)

var optimizePromptTmpl = template.Must(template.New("optimize").Parse(`Generate a precise web search query for: '{{.Query}}'.
Reply with the search query only, on one line, without quotes or explanation.`))

// quotePairs are the delimiters stripped from around a model reply.
var quotePairs = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"«", "»"},
	{"“", "”"},
	{"`", "`"},
}

// Rewriter asks the completion backend for a search-optimized query.
type Rewriter struct {
	Completer completion.Completer
	Logger    arbor.ILogger
}

// New returns a Rewriter using c.
func New(c completion.Completer, logger arbor.ILogger) *Rewriter {
	return &Rewriter{Completer: c, Logger: logger}
}

// Optimize returns the rewritten query, or raw unchanged when the model
// fails or answers with nothing usable.
func (r *Rewriter) Optimize(ctx context.Context, raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}

	prompt, err := renderPrompt(raw)
	if err != nil {
		r.Logger.Error().Err(err).Msg("Rendering rewrite prompt failed")
		return raw
	}

	reply, err := r.Completer.Complete(ctx, prompt)
	if err != nil {
		r.Logger.Warn().Err(err).Str("query", raw).Msg("Query rewrite failed, using raw query")
		return raw
	}

	optimized := clean(reply)
	if optimized == "" {
		r.Logger.Warn().Str("query", raw).Msg("Query rewrite returned no text, using raw query")
		return raw
	}

	r.Logger.Info().Str("query", raw).Str("optimized", optimized).Msg("Query optimized")
	return optimized
}

// clean keeps the first non-empty line of reply and strips surrounding
// whitespace and quote characters.
func clean(reply string) string {
	line := ""
	for _, l := range strings.Split(reply, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	for {
		stripped := false
		for _, q := range quotePairs {
			if inner, ok := enclosed(line, q[0], q[1]); ok {
				line = strings.TrimSpace(inner)
				stripped = true
			}
		}
		if !stripped {
			return line
		}
	}
}

// enclosed returns the text between open and close when they wrap the
// whole of s and do not occur again inside it.
func enclosed(s, open, close string) (string, bool) {
	if len(s) < len(open)+len(close) || !strings.HasPrefix(s, open) || !strings.HasSuffix(s, close) {
		return "", false
	}
	inner := s[len(open) : len(s)-len(close)]
	if strings.Contains(inner, open) || strings.Contains(inner, close) {
		return "", false
	}
	return inner, true
}

func renderPrompt(query string) (string, error) {
	var buf bytes.Buffer
	if err := optimizePromptTmpl.Execute(&buf, struct{ Query string }{Query: query}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
