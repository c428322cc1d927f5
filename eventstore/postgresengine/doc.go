// Package postgresengine provides a PostgreSQL implementation of the dynamic event stream store.
//
// It supports pgx.Pool, sql.DB (lib/pq), and sqlx.DB connections. Queries are built with goqu and
// fully parameterized; payload predicates use JSONB containment, so the GIN index created by
// EnsureSchema serves them.
//
// Append runs in one READ COMMITTED transaction:
//   - transaction-scoped advisory locks are taken for every predicate of the filter and for every
//     string property of the appended payloads (sorted, after a shared or exclusive global lock)
//   - the events are inserted with a CTE that only yields rows if the max sequence number of the
//     filter still equals the expected one
//
// Two writers whose streams overlap therefore always share at least one lock, and the second one
// sees the first one's events once it gets the lock, failing with eventstore.ErrConcurrencyConflict.
//
// Usage:
//
//	db, _ := pgxpool.New(ctx, dsn)
//	store, _ := postgresengine.NewEventStoreFromPGXPool(db, postgresengine.WithLogger(logger))
//	_ = store.EnsureSchema(ctx)
//
//	events, maxSeq, _ := store.Query(ctx, filter)
//	err := store.Append(ctx, filter, maxSeq, newEvents...)
package postgresengine
