// Package postgreswrapper creates Postgres backed event stores for tests.
//
// Tests using it are skipped unless CIRCULATION_TEST_POSTGRES_DSN is set. ADAPTER_TYPE selects the
// connection type (pgx.pool, sql.db, sqlx.db), default is pgx.pool. Every wrapper works on its own
// freshly created events table, which is dropped again on Close.
package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // database/sql driver
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation/eventstore/postgresengine"
)

const (
	EnvTestDSN     = "CIRCULATION_TEST_POSTGRES_DSN"
	EnvAdapterType = "ADAPTER_TYPE"

	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

// Wrapper owns a database connection and an EventStore on a private table.
type Wrapper struct {
	es        *postgresengine.EventStore
	tableName string
	dropTable func(ctx context.Context, statement string) error
	closeDB   func()
}

// GetEventStore returns the wrapped EventStore.
func (w *Wrapper) GetEventStore() *postgresengine.EventStore {
	return w.es
}

// TableName returns the name of the private events table.
func (w *Wrapper) TableName() string {
	return w.tableName
}

// Close drops the private table and closes the connection.
func (w *Wrapper) Close() {
	_ = w.dropTable(context.Background(), fmt.Sprintf("DROP TABLE IF EXISTS %s", w.tableName))
	w.closeDB()
}

// DSNOrSkip returns the test DSN or skips the test.
func DSNOrSkip(t testing.TB) string {
	t.Helper()

	dsn := os.Getenv(EnvTestDSN)
	if dsn == "" {
		t.Skipf("%s is not set, skipping postgres test", EnvTestDSN)
	}

	return dsn
}

// CreateWrapperWithTestConfig creates a Wrapper for the adapter type selected by ADAPTER_TYPE.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) *Wrapper {
	t.Helper()

	dsn := DSNOrSkip(t)
	ctx := context.Background()
	tableName := "events_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	options = append([]postgresengine.Option{postgresengine.WithTableName(tableName)}, options...)

	wrapper := &Wrapper{tableName: tableName}

	switch adapterType := strings.ToLower(os.Getenv(EnvAdapterType)); adapterType {
	case typePGXPool, "":
		pool, err := pgxpool.New(ctx, dsn)
		require.NoError(t, err, "error connecting to DB pool in test setup")

		wrapper.es, err = postgresengine.NewEventStoreFromPGXPool(pool, options...)
		require.NoError(t, err)

		wrapper.dropTable = func(ctx context.Context, statement string) error {
			_, execErr := pool.Exec(ctx, statement)
			return execErr
		}
		wrapper.closeDB = pool.Close

	case typeSQLDB:
		db, err := sql.Open("postgres", dsn)
		require.NoError(t, err)

		wrapper.es, err = postgresengine.NewEventStoreFromSQLDB(db, options...)
		require.NoError(t, err)

		wrapper.dropTable = func(ctx context.Context, statement string) error {
			_, execErr := db.ExecContext(ctx, statement)
			return execErr
		}
		wrapper.closeDB = func() { _ = db.Close() }

	case typeSQLXDB:
		db, err := sqlx.Open("postgres", dsn)
		require.NoError(t, err)

		wrapper.es, err = postgresengine.NewEventStoreFromSQLX(db, options...)
		require.NoError(t, err)

		wrapper.dropTable = func(ctx context.Context, statement string) error {
			_, execErr := db.ExecContext(ctx, statement)
			return execErr
		}
		wrapper.closeDB = func() { _ = db.Close() }

	default:
		t.Fatalf("unsupported %s: %s", EnvAdapterType, adapterType)
	}

	require.NoError(t, wrapper.es.EnsureSchema(ctx))

	return wrapper
}
