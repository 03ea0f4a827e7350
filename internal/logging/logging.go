// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the arbor logger shared by every pipeline stage.
// The optional file writer is the append-only execution log: timestamped
// stage start/end lines, elapsed times, and errors.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"

	"github.com/pdiddy/answer-engine/pkg/types"
)

const (
	timeFormat     = "2006-01-02 15:04:05.000"
	maxLogFileSize = 50 * 1024 * 1024
	maxLogBackups  = 3
)

// New returns a logger configured from cfg. A log file that cannot be
// created is reported on stderr and file logging is skipped; logging setup
// never prevents a run.
func New(cfg types.LoggingConfig) arbor.ILogger {
	logger := arbor.NewLogger()

	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "warning: cannot create log directory %s: %v\n", dir, err)
				cfg.File = ""
			}
		}
	}
	if cfg.File != "" {
		logger = logger.WithFileWriter(models.WriterConfiguration{
			Type:       models.LogWriterTypeFile,
			FileName:   cfg.File,
			TimeFormat: timeFormat,
			MaxSize:    maxLogFileSize,
			MaxBackups: maxLogBackups,
			OutputType: models.OutputFormatLogfmt,
		})
	}

	if cfg.Console {
		logger = logger.WithConsoleWriter(models.WriterConfiguration{
			Type:       models.LogWriterTypeConsole,
			TimeFormat: "15:04:05",
			OutputType: models.OutputFormatLogfmt,
		})
	}

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	return logger.WithLevelFromString(level)
}

// Stage logs the start of a named stage and returns a function that logs
// its end with the elapsed time in seconds. Usage:
//
//	done := logging.Stage(logger, "retrieve")
//	defer done()
func Stage(logger arbor.ILogger, name string) func() {
	start := time.Now()
	logger.Info().Str("stage", name).Msgf("[START] %s", name)
	return func() {
		elapsed := time.Since(start)
		logger.Info().
			Str("stage", name).
			Dur("elapsed", elapsed).
			Msgf("[END] %s (%.2fs)", name, elapsed.Seconds())
	}
}
