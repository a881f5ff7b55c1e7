package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"tokengate/internal/platform/config"
	"tokengate/internal/platform/httpserver"
	"tokengate/internal/platform/logger"
	"tokengate/internal/platform/tracing"
)

// main loads configuration, builds the deployment, and runs the HTTP server
// next to the event pipeline until a signal arrives.
func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.Env, cfg.Server.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if path := os.Getenv("TOKENGATE_CONFIG"); path != "" {
		return config.Load(path)
	}
	return config.FromEnv()
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	infra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	app, err := buildApp(ctx, cfg, infra, log)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, worker := range app.workers {
		g.Go(func() error { return worker(gctx) })
	}
	g.Go(func() error {
		srv := httpserver.New(cfg.Server.Addr, app.router)
		log.Info("starting tokengate", "addr", cfg.Server.Addr, "env", cfg.Server.Env, "tokens", len(app.deployment.Directory.Tokens()))
		return httpserver.Serve(gctx, srv, cfg.Server.ShutdownTimeout)
	})
	return g.Wait()
}
