// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// ProviderError reports a retrieval provider that was unreachable or returned
// malformed data. It degrades to zero records for Kind.
type ProviderError struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// FetchError reports a document that could not be loaded or rendered. It
// degrades to an empty body for URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CompletionError reports a generative model call that failed or returned
// unusable content. Stage names the pipeline stage; URL is set for
// per-document extraction failures.
type CompletionError struct {
	Stage string
	URL   string
	Err   error
}

func (e *CompletionError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s completion for %s: %v", e.Stage, e.URL, e.Err)
	}
	return fmt.Sprintf("%s completion: %v", e.Stage, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// ModelOfflineError reports a failed pre-flight health check. It is the only
// error that aborts a run.
type ModelOfflineError struct {
	Backend string
	Err     error
}

func (e *ModelOfflineError) Error() string {
	return fmt.Sprintf("model backend %s is offline: %v", e.Backend, e.Err)
}

func (e *ModelOfflineError) Unwrap() error { return e.Err }
