// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

const redacted = "<redacted>"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration as YAML",
	Long: `Config prints the configuration after defaults, the config file, and
ANSWER_ENGINE_* variables have been applied. API keys are redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Completion.APIKey != "" {
			cfg.Completion.APIKey = redacted
		}
		if cfg.Retrieval.BraveAPIKey != "" {
			cfg.Retrieval.BraveAPIKey = redacted
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
