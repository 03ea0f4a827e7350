// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/answer-engine/internal/logging"
	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/internal/synth"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// errDegraded makes ask exit non-zero when the answer is a fallback.
var errDegraded = errors.New("answer degraded, see warnings")

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question with cited sources",
	Long: `Ask runs the full pipeline for one question and prints the answer followed
by its numbered sources. Use --format json or --format yaml to print the
complete result, including the optimized query, warnings, and timing.`,
	Example: `  answer-engine ask "What is the capital of France?"
  answer-engine ask --no-extract --format json latest Mars mission`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("format", "text", "output format: text, json, yaml")
	askCmd.Flags().Bool("no-extract", false, "skip page fetching and answer from search snippets")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want text, json, or yaml)", format)
	}
	if noExtract, _ := cmd.Flags().GetBool("no-extract"); noExtract {
		viper.Set("extraction.enabled", false)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctl, closeFn, err := pipeline.Build(ctx, cfg, loadedSecrets, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	res := ctl.Process(ctx, strings.Join(args, " "))
	if err := writeResult(cmd.OutOrStdout(), format, res); err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	if res.Degraded {
		return errDegraded
	}
	return nil
}

// writeResult prints res in the requested format.
func writeResult(w io.Writer, format string, res types.PipelineResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, synth.WithSources(res))
		return err
	}
}
