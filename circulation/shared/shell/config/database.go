package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/shelfwise/circulation/eventstore/postgresengine"
)

const (
	defaultMaxConnLifetime   = time.Hour
	defaultMaxConnIdleTime   = 5 * time.Minute
	defaultHealthCheckPeriod = time.Minute
	defaultConnectTimeout    = 5 * time.Second
)

// PGXPoolConfig creates a pgxpool.Config for dsn with the pool sizes of cfg.
func (cfg DatabaseConfig) PGXPoolConfig(dsn string) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}

	poolConfig.MaxConnLifetime = defaultMaxConnLifetime
	poolConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	poolConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	return poolConfig, nil
}

// OpenSQLDB opens and pings a database/sql pool using the lib/pq driver.
func (cfg DatabaseConfig) OpenSQLDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg.configureSQLPool(db)

	if err = db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping database: %w", err), db.Close())
	}

	return db, nil
}

// OpenSQLX opens and pings a sqlx pool using the lib/pq driver.
func (cfg DatabaseConfig) OpenSQLX(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg.configureSQLPool(db.DB)

	if err = db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping database: %w", err), db.Close())
	}

	return db, nil
}

func (cfg DatabaseConfig) configureSQLPool(db *sql.DB) {
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConns))
	}

	if cfg.MinConns > 0 {
		db.SetMaxIdleConns(int(cfg.MinConns))
	}

	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)
}

// OpenEventStore connects with the configured adapter and returns the event store and a function that
// closes its connections. The replica DSN only applies to the pgx adapter.
func (cfg DatabaseConfig) OpenEventStore(
	ctx context.Context,
	options ...postgresengine.Option,
) (*postgresengine.EventStore, func(), error) {

	if cfg.Table != "" {
		options = append(options, postgresengine.WithTableName(cfg.Table))
	}

	switch cfg.Adapter {
	case AdapterPGX:
		return cfg.openPGXEventStore(ctx, options)

	case AdapterSQL:
		db, err := cfg.OpenSQLDB(ctx)
		if err != nil {
			return nil, nil, err
		}

		store, err := postgresengine.NewEventStoreFromSQLDB(db, options...)
		if err != nil {
			return nil, nil, errors.Join(err, db.Close())
		}

		return store, func() { _ = db.Close() }, nil

	case AdapterSQLX:
		db, err := cfg.OpenSQLX(ctx)
		if err != nil {
			return nil, nil, err
		}

		store, err := postgresengine.NewEventStoreFromSQLX(db, options...)
		if err != nil {
			return nil, nil, errors.Join(err, db.Close())
		}

		return store, func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, cfg.Adapter)
	}
}

func (cfg DatabaseConfig) openPGXEventStore(
	ctx context.Context,
	options []postgresengine.Option,
) (*postgresengine.EventStore, func(), error) {

	primary, err := cfg.newPool(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	if cfg.ReplicaDSN == "" {
		store, storeErr := postgresengine.NewEventStoreFromPGXPool(primary, options...)
		if storeErr != nil {
			primary.Close()
			return nil, nil, storeErr
		}

		return store, primary.Close, nil
	}

	replica, err := cfg.newPool(ctx, cfg.ReplicaDSN)
	if err != nil {
		primary.Close()
		return nil, nil, err
	}

	closeAll := func() {
		replica.Close()
		primary.Close()
	}

	store, err := postgresengine.NewEventStoreFromPGXPoolAndReplica(primary, replica, options...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	return store, closeAll, nil
}

func (cfg DatabaseConfig) newPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := cfg.PGXPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
