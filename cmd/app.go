package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"github.com/helmcode/ml-reasoning-assistant/pkg/analyzer"
	"github.com/helmcode/ml-reasoning-assistant/pkg/cache"
	"github.com/helmcode/ml-reasoning-assistant/pkg/config"
	"github.com/helmcode/ml-reasoning-assistant/pkg/events"
	"github.com/helmcode/ml-reasoning-assistant/pkg/llm"
	"github.com/helmcode/ml-reasoning-assistant/pkg/runbook"
	"github.com/helmcode/ml-reasoning-assistant/pkg/service"
	"github.com/helmcode/ml-reasoning-assistant/pkg/store"
)

// app holds everything a command needs. close releases whatever was opened.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	scenarios *cache.Scenarios
	analyzer  *analyzer.Analyzer
	runner    *service.Runner
	runbooks  *runbook.Catalog
	publisher events.Publisher
	closers   []func()
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: newLogger(cfg.LogLevel)}

	a.runbooks, err = runbook.Load(cfg.RunbooksFile)
	if err != nil {
		return nil, err
	}
	if a.runbooks.Len() > 0 {
		a.logger.Debug("loaded runbook catalog", "file", cfg.RunbooksFile, "entries", a.runbooks.Len())
	}

	a.store, err = store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.closers = append(a.closers, a.store.Close)

	a.scenarios = cache.NewScenarios(nil, a.store, cfg.ScenarioCacheTTL, a.logger)
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			a.logger.Warn("scenario cache disabled", "error", err)
		} else {
			a.closers = append(a.closers, func() { _ = rdb.Close() })
			a.scenarios = cache.NewScenarios(rdb, a.store, cfg.ScenarioCacheTTL, a.logger)
		}
	}

	a.logger.Debug("configuring diagnosis model", "provider", cfg.LLM.Provider, "live", cfg.LiveMode())
	llmClient, err := llm.New(cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrNoCredential):
		a.logger.Info("no LLM credential configured, using stub diagnoses")
		a.analyzer = analyzer.New(nil)
	case err != nil:
		a.close()
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	default:
		a.analyzer = analyzer.New(llmClient)
	}

	a.publisher = events.Noop{}
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL, a.logger)
		if err != nil {
			a.logger.Warn("run events disabled", "error", err)
		} else {
			a.publisher = pub
			a.closers = append(a.closers, pub.Close)
		}
	}

	a.runner = service.NewRunner(a.analyzer, a.store, a.publisher, a.logger)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func printSuccess(msg string) {
	green := color.New(color.FgGreen)
	green.Printf("✓ %s\n", msg)
}

func printWarning(msg string) {
	yellow := color.New(color.FgYellow)
	yellow.Printf("! %s\n", msg)
}

func printError(msg string) {
	red := color.New(color.FgRed)
	red.Printf("✗ %s\n", msg)
}
