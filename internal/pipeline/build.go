// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/pdiddy/answer-engine/internal/acquire"
	"github.com/pdiddy/answer-engine/internal/completion"
	"github.com/pdiddy/answer-engine/internal/extract"
	"github.com/pdiddy/answer-engine/internal/retrieve"
	"github.com/pdiddy/answer-engine/internal/rewrite"
	"github.com/pdiddy/answer-engine/internal/secrets"
	"github.com/pdiddy/answer-engine/internal/synth"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Build wires a Controller from cfg. The returned close function releases
// resources held by the stages (the document cache) and must be called
// when the Controller is no longer used.
func Build(ctx context.Context, cfg types.Config, s secrets.Secrets, logger arbor.ILogger) (*Controller, func() error, error) {
	model, err := completion.New(ctx, cfg.Completion, s, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("completion backend: %w", err)
	}

	kinds, err := retrieve.Kinds(cfg.Retrieval)
	if err != nil {
		return nil, nil, err
	}
	agg, err := retrieve.NewAggregator(cfg.Retrieval, s, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieval providers: %w", err)
	}

	acq, err := acquire.New(ctx, cfg.Acquisition, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("acquisition: %w", err)
	}

	c := &Controller{
		Model:             model,
		Backend:           string(cfg.Completion.Backend),
		Rewriter:          rewrite.New(model, logger),
		Retriever:         agg,
		Acquirer:          acq,
		Extractor:         extract.New(model, cfg.Extraction, logger),
		Synthesizer:       synth.New(model, cfg.Synthesis, logger),
		Kinds:             kinds,
		Limits:            retrieve.Limits(cfg.Retrieval),
		ExtractionEnabled: cfg.Extraction.Enabled,
		Now:               time.Now,
		Logger:            logger,
	}
	logger.Info().
		Str("backend", c.Backend).
		Str("model", cfg.Completion.Model).
		Str("fetcher", string(cfg.Acquisition.Fetcher)).
		Bool("extraction", c.ExtractionEnabled).
		Msg("Pipeline ready")
	return c, acq.Close, nil
}
