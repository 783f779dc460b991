package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fabricmon/telemetry/internal/config"
	"github.com/fabricmon/telemetry/internal/simulator"
	"github.com/fabricmon/telemetry/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	flag.Parse()

	cfg, err := config.LoadSimulator(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting fabricsim",
		"version", version.Version,
		"commit", version.Commit,
		"switches", cfg.Switches,
		"interval", cfg.Interval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim := simulator.New(simulator.Config{
		Switches:      cfg.Switches,
		Interval:      cfg.Interval,
		FaultErrorPct: cfg.FaultErrorPct,
		FaultSlow:     cfg.FaultSlow,
	}, logger)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: sim.Handler(),
	}

	if err := sim.Start(ctx); err != nil {
		logger.Error("failed to start simulator", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := sim.Stop(shutdownCtx); err != nil {
			logger.Warn("simulator shutdown", "error", err)
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("fabricsim failed", "error", err)
		os.Exit(1)
	}

	logger.Info("fabricsim stopped")
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
