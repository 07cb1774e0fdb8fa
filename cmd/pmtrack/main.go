package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pmtrack/internal/cli"
	apphttp "pmtrack/internal/http"
	"pmtrack/internal/log"
	"pmtrack/internal/middleware/ratelimit"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	b := cli.OpenBackend(context.Background(), logger, cfg)
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("Backend close error", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rl := ratelimit.DefaultConfig()
	rl.RequestsPerSecond = cfg.RateLimitRPS
	rl.Burst = cfg.RateLimitBurst

	srv := apphttp.NewServer(apphttp.Options{
		Addr:             ":" + cfg.Port,
		Backend:          b,
		Logger:           logger,
		Registry:         reg,
		RateLimit:        rl,
		OverviewCacheTTL: cfg.OverviewCacheTTL,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting pmtrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", b.AMQPEnabled)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
