// Package adapters provide database adapter implementations for the PostgreSQL event store.
//
// pgx.Pool, sql.DB (lib/pq), and sqlx.DB are supported through the common DBAdapter interface.
// All statements are parameterized and appends run inside a transaction, which is what the
// event store needs to take its advisory locks before the conditional insert.
package adapters
