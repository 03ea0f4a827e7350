// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/answer-engine/internal/completion"
	"github.com/pdiddy/answer-engine/internal/logging"
	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the answer pipeline over HTTP",
	Long: `Serve starts an HTTP server with a query form at /, an HTML answer page at
/ask?q=..., a JSON API at POST /api/ask, and a model health check at
/healthz. One query is processed at a time; concurrent requests receive
503 until the active run finishes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	var health func(context.Context) error
	if hc, ok := ctl.Model.(completion.HealthChecker); ok {
		health = hc.HealthCheck
	}
	srv := server.New(ctl, health, cfg.Server, logger)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
