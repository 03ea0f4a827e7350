// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the answer-engine CLI. The ask
// command answers one query from the terminal; serve exposes the same
// pipeline over HTTP.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/answer-engine/internal/config"
	"github.com/pdiddy/answer-engine/internal/secrets"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the answer-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "answer-engine",
	Short: "Answer questions from live web sources with numbered citations",
	Long: `answer-engine answers a natural-language question by rewriting it into a
search query, retrieving web, news, and encyclopedia results, fetching the
pages, extracting the relevant facts with a language model, and composing a
short answer that cites its sources as [1], [2], ...

The language model backend (Ollama, Anthropic, Gemini, OpenAI) and every
stage are configured in answer-engine.yaml or ANSWER_ENGINE_* variables.
API keys may be placed in .secrets/ as one file per key.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, warnings, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Names())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./answer-engine.yaml or ~/.config/answer-engine/answer-engine.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("backend", "", "completion backend: ollama, anthropic, gemini, openai")
	rootCmd.PersistentFlags().String("model", "", "completion model name")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("completion.backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("completion.model", rootCmd.PersistentFlags().Lookup("model"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("answer-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "answer-engine"))
		}
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig resolves and validates the configuration from viper.
func loadConfig() (types.Config, error) {
	return config.Load(viper.GetViper())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
