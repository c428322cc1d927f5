package postgresengine

import (
	"context"
	"errors"
	"fmt"
)

// ErrEnsuringSchemaFailed is returned when the events table or its indexes can't be created.
var ErrEnsuringSchemaFailed = errors.New("ensuring the events schema failed")

const logMsgSchemaEnsured = "schema ensured"

// SchemaStatements returns the idempotent DDL for the events table of this EventStore.
// The GIN index with jsonb_path_ops serves the @> predicates of Query and Append.
func (es *EventStore) SchemaStatements() []string {
	table := es.eventTableName

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	sequence_number BIGSERIAL PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	event_type TEXT NOT NULL,
	payload JSONB NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	append_timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_event_type_idx ON %[1]s (event_type)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_payload_idx ON %[1]s USING gin (payload jsonb_path_ops)`, table),
	}
}

// EnsureSchema creates the events table and its indexes if they don't exist yet.
func (es *EventStore) EnsureSchema(ctx context.Context) error {
	for _, statement := range es.SchemaStatements() {
		if _, err := es.db.Exec(ctx, statement); err != nil {
			es.logError(ctx, ErrEnsuringSchemaFailed.Error(), err)
			return errors.Join(ErrEnsuringSchemaFailed, err)
		}
	}

	es.logOperation(ctx, logMsgSchemaEnsured, "table", es.eventTableName)

	return nil
}
