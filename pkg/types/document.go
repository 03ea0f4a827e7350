// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Document is a URL paired with the plain text extracted from its page.
// Body is empty when acquisition failed.
type Document struct {
	URL  string `json:"url" yaml:"url"`
	Body string `json:"body" yaml:"body"`
}

// Extract is the query-focused summary the model produced for one Document.
type Extract struct {
	URL  string `json:"url" yaml:"url"`
	Text string `json:"text" yaml:"text"`
}
