// Package backend assembles the store and services the binaries run on.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pmtrack/internal/aggregation"
	"pmtrack/internal/amqp"
	"pmtrack/internal/services"
	"pmtrack/internal/storage"
	"pmtrack/internal/store"
	"pmtrack/internal/store/memory"
)

// Backend is a ready store with the services built on it.
type Backend struct {
	Store       store.Store
	Entries     *services.TimeEntryService
	Calendar    *services.CalendarQueryService
	Aggregation *aggregation.Engine
	// AMQPEnabled reports whether writes publish sync events.
	AMQPEnabled bool
}

// Close releases the store and the broker connection.
func (b *Backend) Close() error {
	return b.Entries.Close()
}

// Factory creates backends based on configuration
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

func (f *Factory) Create(ctx context.Context, cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var s store.Store
	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		s = repo
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case MemoryBackend:
		s = memory.New()
		f.logger.Info("Initialized memory backend")
	}

	if cfg.SeedDemoData {
		if err := store.Seed(ctx, s); err != nil {
			return nil, errors.Join(fmt.Errorf("seed demo data: %w", err), s.Close())
		}
	}

	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			publisher = client
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	return &Backend{
		Store:       s,
		Entries:     services.NewTimeEntryService(s, publisher),
		Calendar:    services.NewCalendarQueryService(s),
		Aggregation: aggregation.NewEngine(s),
		AMQPEnabled: publisher != nil,
	}, nil
}
