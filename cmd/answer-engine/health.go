// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/completion"
	"github.com/pdiddy/answer-engine/internal/logging"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the configured language model is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := logging.New(cfg.Logging)

		model, err := completion.New(cmd.Context(), cfg.Completion, loadedSecrets, logger)
		if err != nil {
			return err
		}
		if hc, ok := model.(completion.HealthChecker); ok {
			if err := hc.HealthCheck(cmd.Context()); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %s %s\n", cfg.Completion.Backend, cfg.Completion.Model)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
