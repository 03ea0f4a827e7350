// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// maxRangeSpan bounds the expansion of a range marker such as [1-3].
const maxRangeSpan = 20

var (
	// numericCiteRe matches single citation markers like [1], [12],
	// together with the horizontal space before them.
	numericCiteRe = regexp.MustCompile(`[ \t]*\[(\d+)\]`)

	// groupCiteRe matches grouped markers like [1, 2], [1;3], [1-3], [2–4, 6].
	groupCiteRe = regexp.MustCompile(`\[\s*\d+\s*(?:[,;\-–]\s*\d+\s*)+\]`)

	// sourcesHeadingRe matches a "Sources:" or "References:" heading line.
	sourcesHeadingRe = regexp.MustCompile(`(?im)^[ \t#*_]*(sources|references)[ \t*_]*:?[ \t*_]*$`)
)

// NormalizeCitations rewrites grouped markers into adjacent single markers
// ([1, 2] becomes [1][2], [1-3] becomes [1][2][3]) and removes markers
// whose index is outside 1..k. Numbers above k+maxRangeSpan, such as
// bracketed years, are not treated as citations and are left alone.
func NormalizeCitations(text string, k int) string {
	text = groupCiteRe.ReplaceAllStringFunc(text, func(g string) string {
		return expandGroup(g, k)
	})
	return numericCiteRe.ReplaceAllStringFunc(text, func(m string) string {
		n, err := strconv.Atoi(numericCiteRe.FindStringSubmatch(m)[1])
		if err != nil || n > k+maxRangeSpan {
			return m
		}
		if n < 1 || n > k {
			return ""
		}
		return m
	})
}

// expandGroup turns one grouped marker into adjacent single markers. A
// group that cannot be parsed, or that names a number above
// k+maxRangeSpan, is returned unchanged.
func expandGroup(group string, k int) string {
	inner := strings.Trim(group, "[]")
	var b strings.Builder
	for _, part := range strings.FieldsFunc(inner, func(r rune) bool { return r == ',' || r == ';' }) {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(strings.ReplaceAll(part, "–", "-"), "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || a > k+maxRangeSpan {
			return group
		}
		if !isRange {
			fmt.Fprintf(&b, "[%d]", a)
			continue
		}
		z, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil || z < a || z-a > maxRangeSpan || z > k+maxRangeSpan {
			return group
		}
		for n := a; n <= z; n++ {
			fmt.Fprintf(&b, "[%d]", n)
		}
	}
	return b.String()
}

// Markers returns the distinct citation indices used in text, in order of
// first appearance.
func Markers(text string) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range numericCiteRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// HasSourcesSection reports whether text already contains a sources or
// references heading.
func HasSourcesSection(text string) bool {
	return sourcesHeadingRe.MatchString(text)
}

// StripSourcesSection drops a trailing sources or references section
// from text.
func StripSourcesSection(text string) string {
	loc := sourcesHeadingRe.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return strings.TrimSpace(text[:loc[0]])
}

// FormatSources renders the numbered source list:
//
//	Sources:
//	[1] https://example.com/a
//	[2] https://example.com/b
func FormatSources(sources []types.Source) string {
	if len(sources) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Sources:")
	for _, s := range sources {
		fmt.Fprintf(&b, "\n[%d] %s", s.Index, s.URL)
	}
	return b.String()
}

// WithSources returns res.Answer followed by the numbered source list,
// unless the answer already carries its own sources section.
func WithSources(res types.PipelineResult) string {
	list := FormatSources(res.Sources)
	if list == "" || HasSourcesSection(res.Answer) {
		return res.Answer
	}
	return strings.TrimRight(res.Answer, "\n") + "\n\n" + list
}
