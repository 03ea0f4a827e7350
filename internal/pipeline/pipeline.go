// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one query through the answer stages: health check,
// rewrite, retrieve, acquire, extract, and synthesize. Stages run strictly
// in sequence; each is wrapped in the same start/end instrumentation. Only
// a failed health check aborts a run; every other failure degrades the
// affected stage and is reported in the result's warnings.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/pdiddy/answer-engine/internal/completion"
	"github.com/pdiddy/answer-engine/internal/logging"
	"github.com/pdiddy/answer-engine/internal/retrieve"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// OfflineAnswer is returned when the language model fails its health check.
const OfflineAnswer = "Service unavailable: the language model is offline."

// EmptyRetrievalWarning is reported when no kind returned any record.
const EmptyRetrievalWarning = "retrieval returned no records for any kind"

// Rewriter produces the retrieval query.
type Rewriter interface {
	Optimize(ctx context.Context, raw string) string
}

// Retriever gathers records and the SourceSet for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, kinds []types.Kind, limits map[types.Kind]int) retrieve.Outcome
}

// Acquirer loads document text for URLs, returned in input order.
type Acquirer interface {
	AcquireAll(ctx context.Context, urls []string) ([]types.Document, []error)
}

// Extractor reduces documents to query-relevant extracts.
type Extractor interface {
	ExtractAll(ctx context.Context, query string, docs []types.Document) ([]types.Extract, []error)
}

// Synthesizer composes the cited answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, extracts []types.Extract, now time.Time) types.PipelineResult
}

// Controller wires the stages of one pipeline run.
type Controller struct {
	// Model is probed before every run when it implements
	// completion.HealthChecker.
	Model   completion.Completer
	Backend string

	Rewriter    Rewriter
	Retriever   Retriever
	Acquirer    Acquirer
	Extractor   Extractor
	Synthesizer Synthesizer

	Kinds  []types.Kind
	Limits map[types.Kind]int

	// ExtractionEnabled fetches and extracts pages. When false, retrieval
	// snippets are used as extracts and nothing is fetched.
	ExtractionEnabled bool

	Now    func() time.Time
	Logger arbor.ILogger
}

// Process answers raw. It always returns a result; failures are reflected
// in Answer, Degraded, and Warnings.
func (c *Controller) Process(ctx context.Context, raw string) types.PipelineResult {
	start := time.Now()
	runID := uuid.NewString()
	logger := c.Logger.WithCorrelationId(runID)
	logger.Info().Str("run_id", runID).Str("query", raw).Msg("Pipeline started")

	if err := c.healthCheck(ctx, logger); err != nil {
		res := types.PipelineResult{
			RunID:    runID,
			Query:    types.Query{Raw: raw, Optimized: raw},
			Answer:   OfflineAnswer,
			Sources:  []types.Source{},
			Degraded: true,
			Warnings: []string{err.Error()},
			Elapsed:  time.Since(start),
		}
		logger.Error().Err(err).Msg("Pipeline aborted")
		return res
	}

	var optimized string
	instrument(logger, "rewrite", func() {
		optimized = c.Rewriter.Optimize(ctx, raw)
	})

	var outcome retrieve.Outcome
	instrument(logger, "retrieve", func() {
		outcome = c.Retriever.Retrieve(ctx, optimized, c.Kinds, c.Limits)
	})
	warnings := providerWarnings(c.Kinds, outcome.Failed)
	if outcome.Empty() {
		logger.Warn().Int("kinds", len(c.Kinds)).Msg("Retrieval returned no records")
		warnings = append(warnings, EmptyRetrievalWarning)
	}
	urls := sourceURLs(outcome)

	var extracts []types.Extract
	if c.ExtractionEnabled {
		var docs []types.Document
		instrument(logger, "acquire", func() {
			var errs []error
			docs, errs = c.Acquirer.AcquireAll(ctx, urls)
			warnings = appendErrors(warnings, errs)
		})
		instrument(logger, "extract", func() {
			var errs []error
			extracts, errs = c.Extractor.ExtractAll(ctx, raw, docs)
			warnings = appendErrors(warnings, errs)
		})
	} else {
		extracts = snippetExtracts(outcome.Records)
		logger.Info().Int("extracts", len(extracts)).Msg("Extraction disabled, using retrieval snippets")
	}

	var res types.PipelineResult
	instrument(logger, "synthesize", func() {
		res = c.Synthesizer.Synthesize(ctx, raw, extracts, c.now())
	})

	titles := make(map[string]string, len(outcome.Records))
	for _, r := range outcome.Records {
		titles[r.URL] = r.Title
	}
	for i := range res.Sources {
		if res.Sources[i].Title == "" {
			res.Sources[i].Title = titles[res.Sources[i].URL]
		}
	}

	res.RunID = runID
	res.Query = types.Query{Raw: raw, Optimized: optimized}
	res.Warnings = append(warnings, res.Warnings...)
	res.Elapsed = time.Since(start)

	logger.Info().
		Str("run_id", runID).
		Int("sources", len(res.Sources)).
		Int("warnings", len(res.Warnings)).
		Bool("degraded", res.Degraded).
		Dur("elapsed", res.Elapsed).
		Msgf("Pipeline finished (%.2fs)", res.Elapsed.Seconds())
	return res
}

// healthCheck probes the model. The error, when non-nil, is a
// *types.ModelOfflineError.
func (c *Controller) healthCheck(ctx context.Context, logger arbor.ILogger) error {
	hc, ok := c.Model.(completion.HealthChecker)
	if !ok {
		return nil
	}
	var err error
	instrument(logger, "health_check", func() {
		err = hc.HealthCheck(ctx)
	})
	if err == nil {
		return nil
	}
	var offline *types.ModelOfflineError
	if errors.As(err, &offline) {
		return offline
	}
	return &types.ModelOfflineError{Backend: c.Backend, Err: err}
}

func (c *Controller) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// instrument runs fn between [START] and [END] log lines for stage.
func instrument(logger arbor.ILogger, stage string, fn func()) {
	done := logging.Stage(logger, stage)
	defer done()
	fn()
}

func sourceURLs(o retrieve.Outcome) []string {
	if o.Sources == nil {
		return nil
	}
	return o.Sources.URLs()
}

// snippetExtracts turns retrieval snippets into extracts, one per record
// with a non-empty snippet.
func snippetExtracts(records []types.RetrievalRecord) []types.Extract {
	var out []types.Extract
	for _, r := range records {
		if strings.TrimSpace(r.Snippet) == "" {
			continue
		}
		out = append(out, types.Extract{URL: r.URL, Text: r.Snippet})
	}
	return out
}

// providerWarnings lists failed kinds in kind priority order.
func providerWarnings(kinds []types.Kind, failed map[types.Kind]error) []string {
	var out []string
	for _, k := range kinds {
		if err, ok := failed[k]; ok {
			out = append(out, err.Error())
		}
	}
	return out
}

func appendErrors(warnings []string, errs []error) []string {
	for _, err := range errs {
		warnings = append(warnings, err.Error())
	}
	return warnings
}
