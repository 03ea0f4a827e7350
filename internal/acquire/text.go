// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// textSelector lists the elements whose text is kept.
const textSelector = "p, h1, h2, h3"

// ExtractText returns the text of every paragraph and top-level heading in
// html, in document order. Each element's whitespace is collapsed to single
// spaces and elements are joined with one space. No length cap is applied.
func ExtractText(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	var parts []string
	doc.Find(textSelector).Each(func(_ int, s *goquery.Selection) {
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " "), nil
}
