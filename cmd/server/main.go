// HTTP chat service for the tradvisor agent.
//
// Streams agent events over Server-Sent Events and keeps chat sessions in
// memory or in SQLite.
//
// Usage:
//
//	server                              Listen on :8080 with settings from the environment
//	server -config tradvisor.yaml       Load settings from a YAML file first
//	server -env .env.local              Read variables from a dotenv file
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mfateev/tradvisor-agent/internal/agent"
	"github.com/mfateev/tradvisor-agent/internal/config"
	"github.com/mfateev/tradvisor-agent/internal/history"
	"github.com/mfateev/tradvisor-agent/internal/instructions"
	"github.com/mfateev/tradvisor-agent/internal/llm"
	"github.com/mfateev/tradvisor-agent/internal/metrics"
	"github.com/mfateev/tradvisor-agent/internal/server"
	"github.com/mfateev/tradvisor-agent/internal/version"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	envFile := flag.String("env", ".env", "dotenv file (optional)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*configPath, *envFile, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	prompt, err := instructions.Load(cfg.Agent.InstructionsFile)
	if err != nil {
		return err
	}

	m := metrics.New()
	client := llm.NewResponsesClient(llm.ResponsesConfig{
		APIKey:         cfg.API.APIKey,
		BaseURL:        cfg.API.BaseURL,
		Model:          cfg.API.Model,
		RequestTimeout: cfg.API.RequestTimeout,
		Logger:         logger,
	})
	a := agent.New(client, agent.Config{
		Instructions:  prompt,
		MaxIterations: cfg.Agent.Limits.MaxIterations,
		Classifier:    agent.ClassifierConfigFromLimits(cfg.Agent.Limits),
		Observer:      m,
		Logger:        logger,
	})

	srv := server.New(server.Options{
		Agent:   a,
		Store:   store,
		Config:  cfg.Server,
		Metrics: m.Handler(),
		Logger:  logger,
	})
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	logger.Info("Starting server",
		"version", version.GitCommit,
		"addr", cfg.Server.Addr,
		"model", cfg.API.Model.Model,
		"max_iterations", a.MaxIterations(),
		"store", storeKind(cfg.Store))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", "grace", cfg.Server.ShutdownGrace)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (history.Store, error) {
	if cfg.Path == "" {
		return history.NewInMemoryStore(), nil
	}
	store, err := history.NewSQLiteStore(ctx, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Path, err)
	}
	return store, nil
}

func storeKind(cfg config.StoreConfig) string {
	if cfg.Path == "" {
		return "memory"
	}
	return "sqlite:" + cfg.Path
}
