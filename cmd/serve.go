package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/helmcode/ml-reasoning-assistant/pkg/server"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagnosis page and JSON API",
		Long: `Serve the interactive diagnosis page, the JSON API and /metrics.

Configuration is read from the environment or a .env file:
  DATABASE_URL        Postgres connection string (required)
  HF_TOKEN            Hugging Face token; without a credential diagnoses use the stub
  HF_MODEL            model name (default HuggingFaceH4/zephyr-7b-beta)
  HTTP_ADDR           listen address (default :8080)`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	srv, err := server.New(server.Options{
		Scenarios:    a.scenarios,
		History:      a.store,
		Runner:       a.runner,
		Health:       a.store,
		Runbooks:     a.runbooks,
		HistoryLimit: a.cfg.HistoryLimit,
		Model:        a.analyzer.Model(),
		Live:         a.analyzer.Live(),
		Logger:       a.logger,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(a.cfg.HTTPAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down")
		return srv.Stop()
	}
}

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the scenarios and diagnosis_runs tables if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Migrate(ctx); err != nil {
				return err
			}
			if err := a.scenarios.Invalidate(ctx); err != nil {
				a.logger.Warn("failed to invalidate scenario cache", "error", err)
			}
			printSuccess("Schema is up to date")
			return nil
		},
	}
}
