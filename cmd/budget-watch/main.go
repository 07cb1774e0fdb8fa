package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"pmtrack/internal/cli"
	"pmtrack/internal/log"
	"pmtrack/internal/metrics"
	"pmtrack/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentBudget)
	logger.Info("Starting budget-watch",
		"schedule", cfg.BudgetWatchSchedule,
		"threshold_percent", cfg.BudgetAlertPercent)

	b := cli.OpenBackend(context.Background(), logger, cfg)
	defer b.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", "error", err)
		}
	}()

	watcher := services.NewBudgetWatcher(b.Aggregation, cfg.BudgetAlertPercent)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	run := func() {
		alerts, err := watcher.Run(ctx)
		if err != nil {
			logger.Error("Budget check failed", "error", err)
			return
		}
		m.SetBudgetAlerts(services.AlertsBySeverity(alerts))
	}

	cronLog := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := c.AddFunc(cfg.BudgetWatchSchedule, run); err != nil {
		logger.Error("Invalid budget watch schedule", "error", err)
		return
	}

	run()
	c.Start()

	cli.WaitForShutdown(ctx, done)

	// Stop returns a context done once running jobs finished.
	<-c.Stop().Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics server shutdown error", "error", err)
	}
	logger.Info("Budget-watch shutdown complete")
}
