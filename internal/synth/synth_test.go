// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/pdiddy/answer-engine/internal/completion"
	"github.com/pdiddy/answer-engine/pkg/types"
)

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func capture(reply string, err error) (*string, completion.Func) {
	var prompt string
	return &prompt, func(_ context.Context, p string) (string, error) {
		prompt = p
		return reply, err
	}
}

func TestSynthesizeNumbersSourcesByPosition(t *testing.T) {
	prompt, c := capture("Paris is the capital of France [1][2]. It lies on the Seine [3].\n\nSources:\n[1] a\n[2] b\n[3] c", nil)
	s := New(c, types.SynthesisConfig{NormalizeCitations: true}, arbor.NewLogger())

	extracts := []types.Extract{
		{URL: "https://b.example/", Text: "fact B"},
		{URL: "https://a.example/", Text: "fact A"},
		{URL: "https://b.example/", Text: "duplicate of B"},
		{URL: "https://c.example/", Text: " fact C "},
	}
	res := s.Synthesize(context.Background(), "capital of France", extracts, fixedNow)

	assert.False(t, res.Degraded)
	assert.Equal(t, []types.Source{
		{Index: 1, URL: "https://b.example/"},
		{Index: 2, URL: "https://a.example/"},
		{Index: 3, URL: "https://c.example/"},
	}, res.Sources)
	assert.Equal(t, "capital of France", res.Query.Raw)
	assert.True(t, strings.HasPrefix(res.Answer, "Paris is the capital"))

	p := *prompt
	assert.Contains(t, p, "'capital of France'")
	assert.Contains(t, p, "Current time: 2026-10-17 09:30:00.")
	assert.Contains(t, p, "[1] fact B\n[2] fact A\n[3] fact C\n")
	assert.Contains(t, p, "[1] https://b.example/\n[2] https://a.example/\n[3] https://c.example/\n")
	assert.NotContains(t, p, "duplicate of B")
	assert.Contains(t, p, "5-8 sentences")
	assert.Contains(t, p, "never [1, 2]")
}

func TestSynthesizeCitationIndicesWithinRange(t *testing.T) {
	_, c := capture("Claim one [1, 2]. Claim two [2-3]. Hallucinated [9]. Zero [0].", nil)
	s := New(c, types.SynthesisConfig{NormalizeCitations: true}, arbor.NewLogger())

	extracts := []types.Extract{
		{URL: "https://a.example/", Text: "A"},
		{URL: "https://b.example/", Text: "B"},
		{URL: "https://c.example/", Text: "C"},
	}
	res := s.Synthesize(context.Background(), "q", extracts, fixedNow)

	assert.Equal(t, "Claim one [1][2]. Claim two [2][3]. Hallucinated. Zero.", res.Answer)
	for _, n := range Markers(res.Answer) {
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, len(res.Sources))
	}
}

func TestSynthesizeWithoutNormalization(t *testing.T) {
	_, c := capture("Claim [1, 2] [9].", nil)
	s := New(c, types.SynthesisConfig{}, arbor.NewLogger())
	res := s.Synthesize(context.Background(), "q", []types.Extract{{URL: "https://a.example/", Text: "A"}}, fixedNow)
	assert.Equal(t, "Claim [1, 2] [9].", res.Answer)
}

func TestSynthesizeFailure(t *testing.T) {
	boom := errors.New("model unavailable")
	_, c := capture("", boom)
	s := New(c, types.SynthesisConfig{NormalizeCitations: true}, arbor.NewLogger())

	res := s.Synthesize(context.Background(), "q", []types.Extract{{URL: "https://a.example/", Text: "A"}}, fixedNow)

	assert.Equal(t, FailureAnswer, res.Answer)
	assert.True(t, res.Degraded)
	assert.Equal(t, []types.Source{{Index: 1, URL: "https://a.example/"}}, res.Sources)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "synthesize completion")
}

func TestSynthesizeZeroExtracts(t *testing.T) {
	t.Run("model still consulted", func(t *testing.T) {
		prompt, c := capture("I could not find sources, but Paris is the capital of France.", nil)
		s := New(c, types.SynthesisConfig{}, arbor.NewLogger())

		res := s.Synthesize(context.Background(), "q", nil, fixedNow)

		assert.Contains(t, *prompt, "(no data could be retrieved)")
		assert.Empty(t, res.Sources)
		assert.NotNil(t, res.Sources)
		assert.False(t, res.Degraded)
		assert.Contains(t, res.Answer, "Paris")
	})

	t.Run("model source list dropped", func(t *testing.T) {
		_, c := capture("Paris is the capital of France [1].\n\n**Sources:**\n[1] https://www.britannica.com/place/Paris", nil)
		s := New(c, types.SynthesisConfig{NormalizeCitations: true}, arbor.NewLogger())

		res := s.Synthesize(context.Background(), "q", nil, fixedNow)

		assert.Equal(t, "Paris is the capital of France.", res.Answer)
	})

	t.Run("skip when empty", func(t *testing.T) {
		called := false
		c := completion.Func(func(context.Context, string) (string, error) {
			called = true
			return "x", nil
		})
		s := New(c, types.SynthesisConfig{SkipWhenEmpty: true}, arbor.NewLogger())

		res := s.Synthesize(context.Background(), "q", nil, fixedNow)

		assert.False(t, called)
		assert.Equal(t, NoSourcesAnswer, res.Answer)
		assert.Empty(t, res.Sources)
	})
}

// --- Citations ---

func TestNormalizeCitations(t *testing.T) {
	tests := []struct {
		name string
		in   string
		k    int
		want string
	}{
		{"already normalized", "A [1][2].", 2, "A [1][2]."},
		{"comma group", "A [1, 2].", 2, "A [1][2]."},
		{"semicolon group", "A [1;3].", 3, "A [1][3]."},
		{"range", "A [1-3].", 3, "A [1][2][3]."},
		{"en dash range", "A [2–3].", 3, "A [2][3]."},
		{"mixed group", "A [1, 3-4].", 4, "A [1][3][4]."},
		{"out of range removed", "A [1] B [5].", 2, "A [1] B."},
		{"group partly out of range", "A [2, 7].", 3, "A [2]."},
		{"zero removed", "A [0].", 3, "A."},
		{"no sources", "A [1].", 0, "A."},
		{"oversized range left as is", "A [1-99].", 3, "A [1-99]."},
		{"descending range left as is", "A [3-1].", 3, "A [3-1]."},
		{"non numeric brackets untouched", "See [Smith, 2020] and [a].", 3, "See [Smith, 2020] and [a]."},
		{"bracketed year untouched", "The record [2023] stood [1].", 2, "The record [2023] stood [1]."},
		{"year range untouched", "Temperatures rose [2019-2021].", 2, "Temperatures rose [2019-2021]."},
		{"years beside markers", "Temperatures rose sharply [2019-2021] and the record [2023] stood [1][4].", 2, "Temperatures rose sharply [2019-2021] and the record [2023] stood [1]."},
		{"source list kept", "Text [1].\n\nSources:\n[1] https://a.example/", 1, "Text [1].\n\nSources:\n[1] https://a.example/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCitations(tt.in, tt.k))
		})
	}
}

func TestMarkers(t *testing.T) {
	assert.Equal(t, []int{2, 1, 3}, Markers("x [2] y [1][2] z [3] [1]"))
	assert.Empty(t, Markers("no markers"))
}

func TestHasSourcesSection(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Answer.\n\nSources:\n[1] a", true},
		{"Answer.\n\n**Sources:**\n[1] a", true},
		{"Answer.\n\n## References\n[1] a", true},
		{"Answer citing sources: many [1].", false},
		{"Answer.", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasSourcesSection(tt.text), "text %q", tt.text)
	}
}

func TestStripSourcesSection(t *testing.T) {
	assert.Equal(t, "Answer [1].", StripSourcesSection("Answer [1].\n\nReferences:\n[1] https://a.example/"))
	assert.Equal(t, "No list here.", StripSourcesSection("No list here."))
}

func TestFormatSources(t *testing.T) {
	got := FormatSources([]types.Source{
		{Index: 1, URL: "https://a.example/"},
		{Index: 2, URL: "https://b.example/"},
	})
	assert.Equal(t, "Sources:\n[1] https://a.example/\n[2] https://b.example/", got)
	assert.Empty(t, FormatSources(nil))
}

func TestWithSources(t *testing.T) {
	sources := []types.Source{{Index: 1, URL: "https://a.example/"}}

	res := types.PipelineResult{Answer: "Paris [1].\n", Sources: sources}
	assert.Equal(t, "Paris [1].\n\nSources:\n[1] https://a.example/", WithSources(res))

	res.Answer = "Paris [1].\n\nSources:\n[1] https://a.example/"
	assert.Equal(t, res.Answer, WithSources(res))

	assert.Equal(t, "No sources.", WithSources(types.PipelineResult{Answer: "No sources."}))
}
