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
	"github.com/fabricmon/telemetry/internal/httpapi"
	"github.com/fabricmon/telemetry/internal/poller"
	"github.com/fabricmon/telemetry/internal/query"
	"github.com/fabricmon/telemetry/internal/stats"
	"github.com/fabricmon/telemetry/internal/store"
	"github.com/fabricmon/telemetry/internal/upstream"
	"github.com/fabricmon/telemetry/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting telemetryd",
		"version", version.Version,
		"commit", version.Commit,
		"upstream", cfg.Upstream.URL,
		"poll_interval", cfg.Poller.Interval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.New()
	recorder := stats.NewRecorder(cfg.Stats.Window)

	client := upstream.NewClient(
		cfg.Upstream.URL,
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithLogger(logger),
	)

	p := poller.New(poller.Config{
		Interval: cfg.Poller.Interval,
		Timeout:  cfg.Upstream.Timeout,
	}, client, st, recorder, logger)

	svc := query.NewService(st, recorder, p)
	api := httpapi.NewServer(svc, st, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: api.Handler(),
	}

	if err := p.Start(ctx); err != nil {
		logger.Error("failed to start poller", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.Stop(shutdownCtx); err != nil {
			logger.Warn("poller shutdown", "error", err)
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("telemetryd failed", "error", err)
		os.Exit(1)
	}

	logger.Info("telemetryd stopped")
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
