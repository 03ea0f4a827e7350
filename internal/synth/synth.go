// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth composes the final answer from the per-document extracts.
// Citation indices are assigned by position: the n-th distinct extract URL
// is source [n], and the answer's markers are kept consistent with that
// numbering.
package synth

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/pdiddy/answer-engine/internal/completion"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Stage is the stage name recorded on synthesis CompletionErrors.
const Stage = "synthesize"

// Fixed answers used when the model cannot be consulted.
const (
	FailureAnswer   = "Could not generate a response."
	NoSourcesAnswer = "No sources could be retrieved for this query."
)

// TimeLayout formats the current time embedded in the prompt.
const TimeLayout = "2006-01-02 15:04:05"

type numbered struct {
	Index int
	URL   string
	Text  string
}

var answerPromptTmpl = template.Must(template.New("answer").Parse(`Answer the query '{{.Query}}' in 5-8 sentences using the data provided below.
Be original, accurate, and helpful.
Cite the data you use with its number in square brackets, one number per bracket: write [1] or [1][2], never [1, 2] or [1-2].
Only cite numbers that appear in the data.
At the end of the answer add a section titled 'Sources:' with the numbered list of links.
Current time: {{.Now}}.

Data:
{{range .Sources}}[{{.Index}}] {{.Text}}
{{else}}(no data could be retrieved)
{{end}}
Source links:
{{range .Sources}}[{{.Index}}] {{.URL}}
{{end}}`))

// Synthesizer produces the cited answer.
type Synthesizer struct {
	Completer completion.Completer

	// SkipWhenEmpty returns NoSourcesAnswer without calling the model when
	// there are no extracts.
	SkipWhenEmpty bool

	// NormalizeCitations rewrites grouped and out-of-range markers.
	NormalizeCitations bool

	Logger arbor.ILogger
}

// New returns a Synthesizer using c.
func New(c completion.Completer, cfg types.SynthesisConfig, logger arbor.ILogger) *Synthesizer {
	return &Synthesizer{
		Completer:          c,
		SkipWhenEmpty:      cfg.SkipWhenEmpty,
		NormalizeCitations: cfg.NormalizeCitations,
		Logger:             logger,
	}
}

// Synthesize answers query from extracts. Extracts sharing a URL collapse
// to the first occurrence; the survivors are numbered 1..k in input order
// and returned as the result's Sources. A failed model call yields
// FailureAnswer with Degraded set and the sources still attached.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, extracts []types.Extract, now time.Time) types.PipelineResult {
	items := number(extracts)
	res := types.PipelineResult{
		Query:   types.Query{Raw: query},
		Sources: make([]types.Source, len(items)),
	}
	for i, it := range items {
		res.Sources[i] = types.Source{Index: it.Index, URL: it.URL}
	}

	if len(items) == 0 && s.SkipWhenEmpty {
		s.Logger.Info().Msg("No extracts, skipping synthesis")
		res.Answer = NoSourcesAnswer
		return res
	}

	prompt, err := renderPrompt(query, now, items)
	if err != nil {
		return s.fail(res, err)
	}

	answer, err := s.Completer.Complete(ctx, prompt)
	if err != nil {
		return s.fail(res, err)
	}
	answer = strings.TrimSpace(answer)
	if len(items) == 0 {
		answer = StripSourcesSection(answer)
	}

	if s.NormalizeCitations {
		answer = NormalizeCitations(answer, len(items))
	}
	res.Answer = answer

	s.Logger.Info().
		Int("sources", len(items)).
		Int("cited", len(Markers(answer))).
		Int("chars", len(answer)).
		Msg("Answer synthesized")
	return res
}

func (s *Synthesizer) fail(res types.PipelineResult, err error) types.PipelineResult {
	cerr := &types.CompletionError{Stage: Stage, Err: err}
	s.Logger.Error().Err(cerr).Msg("Answer synthesis failed")
	res.Answer = FailureAnswer
	res.Degraded = true
	res.Warnings = append(res.Warnings, cerr.Error())
	return res
}

// number drops extracts whose URL was already seen and assigns 1-based
// indices in input order.
func number(extracts []types.Extract) []numbered {
	set := types.NewSourceSet()
	var out []numbered
	for _, e := range extracts {
		if !set.Add(e.URL) {
			continue
		}
		out = append(out, numbered{Index: set.Len(), URL: e.URL, Text: strings.TrimSpace(e.Text)})
	}
	return out
}

func renderPrompt(query string, now time.Time, items []numbered) (string, error) {
	var buf bytes.Buffer
	err := answerPromptTmpl.Execute(&buf, struct {
		Query   string
		Now     string
		Sources []numbered
	}{query, now.Format(TimeLayout), items})
	if err != nil {
		return "", fmt.Errorf("rendering answer prompt: %w", err)
	}
	return buf.String(), nil
}
