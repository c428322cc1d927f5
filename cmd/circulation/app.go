package main

import (
	"context"
	"errors"
	"os"

	"github.com/shelfwise/circulation/circulation/api"
	"github.com/shelfwise/circulation/circulation/shared/shell"
	"github.com/shelfwise/circulation/circulation/shared/shell/config"
	"github.com/shelfwise/circulation/eventstore/memengine"
	"github.com/shelfwise/circulation/eventstore/oteladapters"
	"github.com/shelfwise/circulation/eventstore/postgresengine"
)

// app holds the infrastructure shared by the commands.
type app struct {
	cfg       config.Config
	logger    *oteladapters.SlogBridgeLogger
	providers *config.ObservabilityProviders
	store     shell.EventStore
	ledger    api.Ledger
	closers   []func()
}

func newApp(ctx context.Context, cfg config.Config, inMemory bool) (*app, error) {
	logger, err := config.NewLogger(cfg.Log, os.Stdout)
	if err != nil {
		return nil, err
	}

	providers, err := config.NewObservabilityProviders(ctx, cfg.Observability)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, providers: providers}

	if inMemory {
		a.store, err = memengine.NewEventStore(memengine.WithContextualLogger(logger))
	} else {
		a.store, err = a.openPostgres(ctx)
	}

	if err != nil {
		return nil, errors.Join(err, a.close(ctx))
	}

	calculator, err := cfg.Calculator()
	if err != nil {
		return nil, errors.Join(err, a.close(ctx))
	}

	a.ledger, err = api.NewLedger(a.store, api.Settings{
		Calculator:           calculator,
		BorrowingPolicy:      cfg.BorrowingPolicy(),
		AllowPartialPayments: cfg.Fines.AllowPartialPayments,
		SweepParallelism:     cfg.Fines.SweepParallelism,
		RetryOptions:         cfg.RetryOptions(),
		MetricsCollector:     providers.MetricsCollector,
		TracingCollector:     providers.TracingCollector,
		ContextualLogger:     logger,
	})
	if err != nil {
		return nil, errors.Join(err, a.close(ctx))
	}

	return a, nil
}

func (a *app) openPostgres(ctx context.Context) (*postgresengine.EventStore, error) {
	options := []postgresengine.Option{postgresengine.WithContextualLogger(a.logger)}

	if a.providers.MetricsCollector != nil {
		options = append(options, postgresengine.WithMetrics(a.providers.MetricsCollector))
	}

	if a.providers.TracingCollector != nil {
		options = append(options, postgresengine.WithTracing(a.providers.TracingCollector))
	}

	store, closeDB, err := a.cfg.Database.OpenEventStore(ctx, options...)
	if err != nil {
		return nil, err
	}

	a.closers = append(a.closers, closeDB)

	return store, nil
}

func (a *app) close(ctx context.Context) error {
	for _, closeFn := range a.closers {
		closeFn()
	}

	return a.providers.Shutdown(ctx)
}
