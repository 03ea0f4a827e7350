// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Source is one numbered entry of the answer's reference list.
type Source struct {
	// Index is the 1-based citation index used by [n] markers in the answer.
	Index int    `json:"index" yaml:"index"`
	URL   string `json:"url" yaml:"url"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// PipelineResult is the only artifact returned to callers. It holds copies of
// everything it reports.
type PipelineResult struct {
	RunID   string        `json:"run_id" yaml:"run_id"`
	Query   Query         `json:"query" yaml:"query"`
	Answer  string        `json:"answer" yaml:"answer"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	Sources []Source      `json:"sources" yaml:"sources"`

	// Degraded is set when any stage fell back to its failure behavior in a
	// way that affects the answer (model offline, synthesis failure).
	Degraded bool `json:"degraded" yaml:"degraded"`

	// Warnings lists the local degradations logged during the run.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// SourceURLs returns the cited URLs in citation-index order.
func (r PipelineResult) SourceURLs() []string {
	urls := make([]string, len(r.Sources))
	for i, s := range r.Sources {
		urls[i] = s.URL
	}
	return urls
}
