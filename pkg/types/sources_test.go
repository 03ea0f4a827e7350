// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceSetDeduplicatesAndPreservesOrder(t *testing.T) {
	s := NewSourceSet()

	assert.True(t, s.Add("https://a.example/"))
	assert.True(t, s.Add("https://b.example/"))
	assert.False(t, s.Add("https://a.example/"), "duplicate must be rejected")
	assert.False(t, s.Add(""), "empty URL must be ignored")
	assert.True(t, s.Add("https://c.example/"))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"https://a.example/", "https://b.example/", "https://c.example/"}, s.URLs())
	assert.True(t, s.Contains("https://b.example/"))
	assert.False(t, s.Contains("https://d.example/"))
}

func TestSourceSetURLsReturnsCopy(t *testing.T) {
	s := NewSourceSet()
	s.Add("https://a.example/")

	urls := s.URLs()
	urls[0] = "mutated"

	assert.Equal(t, []string{"https://a.example/"}, s.URLs())
}

func TestSourceSetZeroValue(t *testing.T) {
	var s SourceSet
	assert.True(t, s.Add("https://a.example/"))
	assert.False(t, s.Add("https://a.example/"))
	assert.Equal(t, 1, s.Len())
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"web", KindWeb, false},
		{" News ", KindNews, false},
		{"ENCYCLOPEDIA", KindEncyclopedia, false},
		{"images", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorsUnwrap(t *testing.T) {
	base := assert.AnError

	pe := &ProviderError{Kind: KindNews, Provider: "brave", Err: base}
	assert.ErrorIs(t, pe, base)
	assert.Contains(t, pe.Error(), "brave (news)")

	fe := &FetchError{URL: "https://a.example/", Err: base}
	assert.ErrorIs(t, fe, base)

	ce := &CompletionError{Stage: "extract", URL: "https://a.example/", Err: base}
	assert.ErrorIs(t, ce, base)
	assert.Contains(t, ce.Error(), "extract completion for https://a.example/")

	me := &ModelOfflineError{Backend: "ollama", Err: base}
	assert.ErrorIs(t, me, base)
}

func TestPipelineResultSourceURLs(t *testing.T) {
	r := PipelineResult{Sources: []Source{{Index: 1, URL: "a"}, {Index: 2, URL: "b"}}}
	assert.Equal(t, []string{"a", "b"}, r.SourceURLs())
}
