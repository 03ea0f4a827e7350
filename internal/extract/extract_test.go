// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/pdiddy/answer-engine/internal/completion"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// recorder answers every prompt with reply(prompt) and keeps the prompts.
type recorder struct {
	prompts []string
	reply   func(prompt string) (string, error)
}

func (r *recorder) Complete(_ context.Context, prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	return r.reply(prompt)
}

func TestExtractEmptyBodySkipsModel(t *testing.T) {
	rec := &recorder{reply: func(string) (string, error) { return "x", nil }}
	e := &Extractor{Completer: rec, Logger: arbor.NewLogger()}

	got, err := e.Extract(context.Background(), "q", "https://a.example/", "  \n ")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, rec.prompts)
}

func TestExtractPromptAndVerbatimReply(t *testing.T) {
	rec := &recorder{reply: func(string) (string, error) { return "  Paris is the capital.  ", nil }}
	e := &Extractor{Completer: rec, Logger: arbor.NewLogger()}

	got, err := e.Extract(context.Background(), "capital of France", "https://a.example/", "Paris is the capital of France.")
	require.NoError(t, err)
	assert.Equal(t, "  Paris is the capital.  ", got)

	require.Len(t, rec.prompts, 1)
	p := rec.prompts[0]
	assert.Contains(t, p, "'capital of France'")
	assert.Contains(t, p, "Source: https://a.example/")
	assert.Contains(t, p, "Text: Paris is the capital of France.")
}

func TestExtractTruncatesOnRuneBoundary(t *testing.T) {
	rec := &recorder{reply: func(string) (string, error) { return "ok", nil }}
	e := &Extractor{Completer: rec, MaxInputChars: 6, Logger: arbor.NewLogger()}

	_, err := e.Extract(context.Background(), "q", "u", "Привет, мир")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rec.prompts[0], "Text: Привет"))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 0, "hello"},
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"日本語テキスト", 3, "日本語"},
		{"", 3, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.n), "truncate(%q, %d)", tt.in, tt.n)
	}
}

func TestExtractWrapsFailures(t *testing.T) {
	boom := errors.New("timeout")
	e := &Extractor{Completer: completion.Func(func(context.Context, string) (string, error) { return "", boom }), Logger: arbor.NewLogger()}

	_, err := e.Extract(context.Background(), "q", "https://a.example/", "body")
	var cerr *types.CompletionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, Stage, cerr.Stage)
	assert.Equal(t, "https://a.example/", cerr.URL)
	assert.ErrorIs(t, err, boom)
}

func TestExtractAll(t *testing.T) {
	rec := &recorder{reply: func(p string) (string, error) {
		switch {
		case strings.Contains(p, "https://fail.example/"):
			return "", errors.New("model error")
		case strings.Contains(p, "https://blank.example/"):
			return "   ", nil
		case strings.Contains(p, "https://a.example/"):
			return "fact A", nil
		default:
			return "fact C", nil
		}
	}}
	e := New(rec, types.ExtractionConfig{Enabled: true}, arbor.NewLogger())

	docs := []types.Document{
		{URL: "https://a.example/", Body: "page A"},
		{URL: "https://empty.example/", Body: ""},
		{URL: "https://fail.example/", Body: "page F"},
		{URL: "https://blank.example/", Body: "page B"},
		{URL: "https://c.example/", Body: "page C"},
	}
	extracts, errs := e.ExtractAll(context.Background(), "q", docs)

	assert.Equal(t, []types.Extract{
		{URL: "https://a.example/", Text: "fact A"},
		{URL: "https://c.example/", Text: "fact C"},
	}, extracts)
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "https://fail.example/")
	assert.Len(t, rec.prompts, 4, "the empty document is never sent")
}
