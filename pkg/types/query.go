// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the answer-engine pipeline.
// Every value here is created and consumed within a single pipeline run;
// nothing is persisted across runs.
package types

import (
	"fmt"
	"strings"
)

// Query pairs the text the caller supplied with the text used for retrieval.
type Query struct {
	// Raw is the query exactly as given by the caller.
	Raw string `json:"raw" yaml:"raw"`

	// Optimized is the retrieval query produced by the rewriter. It equals
	// Raw when rewriting failed or was skipped.
	Optimized string `json:"optimized" yaml:"optimized"`
}

// Kind identifies which class of retrieval provider surfaced a record.
type Kind string

const (
	KindWeb          Kind = "web"
	KindNews         Kind = "news"
	KindEncyclopedia Kind = "encyclopedia"
)

// DefaultKindOrder is the fixed priority in which kinds are retrieved and in
// which their URLs enter the SourceSet.
var DefaultKindOrder = []Kind{KindWeb, KindNews, KindEncyclopedia}

// ParseKind converts a configuration string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindWeb, KindNews, KindEncyclopedia:
		return k, nil
	default:
		return "", fmt.Errorf("unknown retrieval kind %q (want web, news, or encyclopedia)", s)
	}
}

// RetrievalRecord is one normalized external search result. URL is the
// natural key.
type RetrievalRecord struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Snippet string `json:"snippet" yaml:"snippet"`

	// Domain is the host of URL, without a leading "www.".
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`

	// Date is the publication date as reported by news providers.
	Date string `json:"date,omitempty" yaml:"date,omitempty"`

	// SourceName is the publisher reported by news providers, or the
	// encyclopedia name for encyclopedia records.
	SourceName string `json:"source_name,omitempty" yaml:"source_name,omitempty"`
}
