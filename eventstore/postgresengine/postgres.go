package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/shelfwise/circulation/eventstore"
	"github.com/shelfwise/circulation/eventstore/postgresengine/internal/adapters"
)

const (
	defaultEventTableName          = "events"
	logMsgBuildSelectQueryFailed   = "failed to build select query"
	logMsgDBQueryFailed            = "database query execution failed"
	logMsgCloseRowsFailed          = "failed to close database rows"
	logMsgScanRowFailed            = "failed to scan database row"
	logMsgBuildStorableEventFailed = "failed to build storable event from database row"
	logMsgBuildInsertQueryFailed   = "failed to build insert query"
	logMsgDBExecFailed             = "database execution failed during event append"
	logMsgLockingFailed            = "failed to lock dynamic event stream"
	logMsgQueryCompleted           = "query completed"
	logMsgEventsAppended           = "events appended"
	logMsgConcurrencyConflict      = "concurrency conflict detected"
	logMsgSQLExecuted              = "executed sql for: "
	logMsgOperation                = "eventstore operation: "
	logAttrError                   = "error"
	logAttrQuery                   = "query"
	logAttrEventType               = "event_type"
	logAttrEventCount              = "event_count"
	logAttrDurationMS              = "duration_ms"
	logAttrExpectedEvents          = "expected_events"
	logAttrRowsAffected            = "rows_affected"
	logAttrExpectedSequence        = "expected_sequence"
	logAttrLockCount               = "lock_count"
	logActionQuery                 = "query"
	logActionAppend                = "append"
	colEventType                   = "event_type"
	colOccurredAt                  = "occurred_at"
	colPayload                     = "payload"
	colMetadata                    = "metadata"
	colSequenceNumber              = "sequence_number"
	cteContext                     = "context"
	cteVals                        = "vals"
	dialectPostgres                = "postgres"
	aliasMaxSeq                    = "max_seq"
	castText                       = "?::text"
	castTimestamp                  = "?::timestamptz"
	castJsonb                      = "?::jsonb"
	payloadContains                = `"payload" @> ?::jsonb`
	globalLockKey                  = "*"
	sqlLockShared                  = "SELECT pg_advisory_xact_lock_shared(hashtextextended($1, 0))"
	sqlLockExclusive               = "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))"
)

var (
	// ErrInvalidEventsTableName is returned when the table name is not a plain lower case identifier.
	ErrInvalidEventsTableName = errors.New("events table name must be a lower case sql identifier")

	// ErrNoEventsToAppend is returned when Append is called without events.
	ErrNoEventsToAppend = errors.New("no events to append")
)

type (
	sqlQueryString = string
	sqlArgs        = []any
)

// EventStore represents a storage mechanism for handling and querying events in an event sourcing implementation.
// It leverages a database adapter and supports customizable logging and event table configuration.
type EventStore struct {
	db               adapters.DBAdapter
	eventTableName   string
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector
	tracingCollector eventstore.TracingCollector
}

type queryResultRow struct {
	eventType      string
	payload        []byte
	metadata       []byte
	occurredAt     time.Time
	sequenceNumber eventstore.MaxSequenceNumberUint
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromPGXPoolAndReplica creates a new EventStore using a primary and a replica pgx Pool.
// The replica only serves queries whose context carries eventstore.WithEventualConsistency.
func NewEventStoreFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*EventStore, error) {
	if db == nil || replica == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (*EventStore, error) {
	es := &EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
	}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	return es, nil
}

// Query retrieves events from the Postgres event store based on the provided eventstore.Filter criteria
// and returns them as eventstore.StorableEvents
// as well as the MaxSequenceNumberUint for this "dynamic event stream" at the time of the query.
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	empty := make(eventstore.StorableEvents, 0)
	tracing, ctx := es.startQueryTracing(ctx)
	metrics := es.startQueryMetrics(ctx)
	start := time.Now()

	sqlQuery, args, buildQueryErr := es.buildSelectQuery(filter)
	if buildQueryErr != nil {
		es.logError(ctx, logMsgBuildSelectQueryFailed, buildQueryErr)
		tracing.finishError(errorTypeBuildQuery, time.Since(start))
		metrics.recordError(errorTypeBuildQuery, time.Since(start))

		return empty, 0, buildQueryErr
	}

	rows, queryErr := es.db.Query(ctx, sqlQuery, args...)
	es.logQueryWithDuration(ctx, sqlQuery, logActionQuery, time.Since(start))
	if queryErr != nil {
		es.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		tracing.finishError(errorTypeDatabaseQuery, time.Since(start))
		metrics.recordError(errorTypeDatabaseQuery, time.Since(start))

		return empty, 0, errors.Join(eventstore.ErrQueryingEventsFailed, queryErr)
	}
	defer es.closeRows(ctx, rows)

	eventStream, maxSequenceNumber, scanErr := es.processQueryResults(ctx, rows)
	if scanErr != nil {
		tracing.finishError(errorTypeRowScan, time.Since(start))
		metrics.recordError(errorTypeRowScan, time.Since(start))

		return empty, 0, scanErr
	}

	duration := time.Since(start)
	es.logOperation(
		ctx,
		logMsgQueryCompleted,
		logAttrEventCount, len(eventStream),
		logAttrDurationMS, toMilliseconds(duration))
	tracing.finishSuccess(eventStream, maxSequenceNumber, duration)
	metrics.recordSuccess(eventStream, duration)

	return eventStream, maxSequenceNumber, nil
}

// closeRows safely closes database rows and logs any errors.
func (es *EventStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		es.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// processQueryResults converts database rows to storable events.
func (es *EventStore) processQueryResults(ctx context.Context, rows adapters.DBRows) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	result := queryResultRow{}
	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for rows.Next() {
		rowScanErr := rows.Scan(&result.eventType, &result.occurredAt, &result.payload, &result.metadata, &result.sequenceNumber)
		if rowScanErr != nil {
			es.logError(ctx, logMsgScanRowFailed, rowScanErr)

			return nil, 0, errors.Join(eventstore.ErrScanningDBRowFailed, rowScanErr)
		}

		event, buildStorableErr := eventstore.BuildStorableEvent(
			result.eventType,
			result.occurredAt,
			slices.Clone(result.payload),
			slices.Clone(result.metadata),
		)
		if buildStorableErr != nil {
			es.logError(ctx, logMsgBuildStorableEventFailed, buildStorableErr, logAttrEventType, result.eventType)

			return nil, 0, errors.Join(eventstore.ErrBuildingStorableEventFailed, buildStorableErr)
		}

		eventStream = append(eventStream, event)
		maxSequenceNumber = result.sequenceNumber
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		es.logError(ctx, logMsgScanRowFailed, rowsErr)

		return nil, 0, errors.Join(eventstore.ErrScanningDBRowFailed, rowsErr)
	}

	return eventStream, maxSequenceNumber, nil
}

// Append attempts to append one or multiple eventstore.StorableEvent(s) onto the Postgres event store respecting concurrency constraints
// for this "dynamic event stream" based on the provided eventstore.Filter criteria and the expected MaxSequenceNumberUint.
//
// The provided eventstore.Filter criteria should be the same as the ones used for the Query before making the business decisions.
// All events are appended atomically: either all of them or none.
func (es *EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	storableEvents ...eventstore.StorableEvent,
) error {

	if len(storableEvents) == 0 {
		return ErrNoEventsToAppend
	}

	tracing, ctx := es.startAppendTracing(ctx, storableEvents, expectedMaxSequenceNumber)
	metrics := es.startAppendMetrics(ctx)
	start := time.Now()

	sqlQuery, args, buildQueryErr := es.buildAppendQuery(storableEvents, filter, expectedMaxSequenceNumber)
	if buildQueryErr != nil {
		es.logError(ctx, logMsgBuildInsertQueryFailed, buildQueryErr, logAttrEventCount, len(storableEvents))
		tracing.finishError(errorTypeBuildQuery, time.Since(start))
		metrics.recordError(errorTypeBuildQuery, time.Since(start))

		return buildQueryErr
	}

	exclusive, lockKeys := es.lockKeysFor(filter, storableEvents)
	var rowsAffected int64

	txErr := es.db.WithinTx(ctx, func(tx adapters.DBExecutor) error {
		if lockErr := es.lockStream(ctx, tx, exclusive, lockKeys); lockErr != nil {
			return lockErr
		}

		result, execErr := tx.Exec(ctx, sqlQuery, args...)
		es.logQueryWithDuration(ctx, sqlQuery, logActionAppend, time.Since(start))
		if execErr != nil {
			es.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
			return errors.Join(eventstore.ErrAppendingEventFailed, execErr)
		}

		affected, rowsAffectedErr := result.RowsAffected()
		if rowsAffectedErr != nil {
			return errors.Join(eventstore.ErrGettingRowsAffectedFailed, rowsAffectedErr)
		}

		rowsAffected = affected
		if rowsAffected < int64(len(storableEvents)) {
			return eventstore.ErrConcurrencyConflict
		}

		return nil
	})

	duration := time.Since(start)

	switch {
	case errors.Is(txErr, eventstore.ErrConcurrencyConflict):
		es.logOperation(
			ctx,
			logMsgConcurrencyConflict,
			logAttrExpectedEvents, len(storableEvents),
			logAttrRowsAffected, rowsAffected,
			logAttrExpectedSequence, expectedMaxSequenceNumber,
		)
		tracing.finishError(errorTypeConcurrencyConflict, duration)
		metrics.recordConcurrencyConflict()

		return eventstore.ErrConcurrencyConflict

	case errors.Is(txErr, eventstore.ErrLockingStreamFailed):
		tracing.finishError(errorTypeLocking, duration)
		metrics.recordError(errorTypeLocking, duration)

		return txErr

	case txErr != nil:
		tracing.finishError(errorTypeDatabaseExec, duration)
		metrics.recordError(errorTypeDatabaseExec, duration)

		if !errors.Is(txErr, eventstore.ErrAppendingEventFailed) && !errors.Is(txErr, eventstore.ErrGettingRowsAffectedFailed) {
			return errors.Join(eventstore.ErrAppendingEventFailed, txErr)
		}

		return txErr
	}

	es.logOperation(
		ctx,
		logMsgEventsAppended,
		logAttrEventCount, len(storableEvents),
		logAttrDurationMS, toMilliseconds(duration),
	)
	tracing.finishSuccess(rowsAffected, duration)
	metrics.recordSuccess(len(storableEvents), duration)

	return nil
}

// lockStream takes the advisory locks in a fixed order: the global key first, then the sorted keys.
func (es *EventStore) lockStream(ctx context.Context, tx adapters.DBExecutor, exclusive bool, lockKeys []string) error {
	globalLockSQL := sqlLockShared
	if exclusive {
		globalLockSQL = sqlLockExclusive
	}

	if _, err := tx.Exec(ctx, globalLockSQL, es.eventTableName+"|"+globalLockKey); err != nil {
		es.logError(ctx, logMsgLockingFailed, err, logAttrLockCount, len(lockKeys)+1)
		return errors.Join(eventstore.ErrLockingStreamFailed, err)
	}

	for _, key := range lockKeys {
		if _, err := tx.Exec(ctx, sqlLockExclusive, es.eventTableName+"|"+key); err != nil {
			es.logError(ctx, logMsgLockingFailed, err, logAttrLockCount, len(lockKeys)+1)
			return errors.Join(eventstore.ErrLockingStreamFailed, err)
		}
	}

	return nil
}

// lockKeysFor derives the lock set of an append.
//
// Any writer whose filter could match one of the appended events shares a key with this writer:
// either a "key=val" predicate that the event's payload carries, or the global key, which is taken
// exclusively by writers with a filter item that has no predicates.
func (es *EventStore) lockKeysFor(filter eventstore.Filter, events eventstore.StorableEvents) (bool, []string) {
	exclusive := len(filter.Items()) == 0
	keys := make([]string, 0)

	for _, item := range filter.Items() {
		if len(item.Predicates()) == 0 {
			exclusive = true
		}
	}

	for _, predicate := range filter.Predicates() {
		keys = append(keys, lockKey(predicate.Key(), predicate.Val()))
	}

	for _, event := range events {
		payload := make(map[string]any)
		if err := jsoniter.ConfigFastest.Unmarshal(event.PayloadJSON, &payload); err != nil {
			continue
		}

		for key, val := range payload {
			if s, ok := val.(string); ok && s != "" {
				keys = append(keys, lockKey(key, s))
			}
		}
	}

	slices.Sort(keys)

	return exclusive, slices.Compact(keys)
}

func lockKey(key, val string) string {
	return key + "=" + val
}

// buildAppendQuery builds the appropriate SQL query for single or multiple events.
func (es *EventStore) buildAppendQuery(
	allEvents eventstore.StorableEvents,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (sqlQueryString, sqlArgs, error) {

	if len(allEvents) == 1 {
		return es.buildInsertQueryForSingleEvent(allEvents[0], filter, expectedMaxSequenceNumber)
	}

	return es.buildInsertQueryForMultipleEvents(allEvents, filter, expectedMaxSequenceNumber)
}

func (es *EventStore) buildSelectQuery(filter eventstore.Filter) (sqlQueryString, sqlArgs, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Prepared(true).
		Select(colEventType, colOccurredAt, colPayload, colMetadata, colSequenceNumber).
		Order(goqu.I(colSequenceNumber).Asc())

	whereExpression, whereErr := buildWhereExpression(filter)
	if whereErr != nil {
		return "", nil, whereErr
	}

	if whereExpression != nil {
		selectStmt = selectStmt.Where(whereExpression)
	}

	sqlQuery, args, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

func (es *EventStore) buildMaxSequenceCTE(filter eventstore.Filter) (*goqu.SelectDataset, error) {
	cteStmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(goqu.MAX(colSequenceNumber).As(aliasMaxSeq))

	whereExpression, whereErr := buildWhereExpression(filter)
	if whereErr != nil {
		return nil, whereErr
	}

	if whereExpression != nil {
		cteStmt = cteStmt.Where(whereExpression)
	}

	return cteStmt, nil
}

func (es *EventStore) buildInsertQueryForSingleEvent(
	event eventstore.StorableEvent,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (sqlQueryString, sqlArgs, error) {

	builder := goqu.Dialect(dialectPostgres)

	cteStmt, cteErr := es.buildMaxSequenceCTE(filter)
	if cteErr != nil {
		return "", nil, cteErr
	}

	selectStmt := builder.
		From(cteContext).
		Select(
			goqu.L(castText, event.EventType),
			goqu.L(castTimestamp, event.OccurredAt),
			goqu.L(castJsonb, string(event.PayloadJSON)),
			goqu.L(castJsonb, string(event.MetadataJSON)),
		).
		Where(goqu.COALESCE(goqu.C(aliasMaxSeq), 0).Eq(goqu.V(expectedMaxSequenceNumber)))

	insertStmt := builder.
		Insert(es.eventTableName).
		Prepared(true).
		Cols(colEventType, colOccurredAt, colPayload, colMetadata).
		FromQuery(selectStmt).
		With(cteContext, cteStmt)

	sqlQuery, args, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

func (es *EventStore) buildInsertQueryForMultipleEvents(
	events []eventstore.StorableEvent,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (sqlQueryString, sqlArgs, error) {

	builder := goqu.Dialect(dialectPostgres)

	cteStmt, cteErr := es.buildMaxSequenceCTE(filter)
	if cteErr != nil {
		return "", nil, cteErr
	}

	// one SELECT per event, combined with UNION ALL
	var valuesStmt *goqu.SelectDataset
	for _, event := range events {
		eventStmt := builder.Select(
			goqu.L(castText, event.EventType).As(colEventType),
			goqu.L(castTimestamp, event.OccurredAt).As(colOccurredAt),
			goqu.L(castJsonb, string(event.PayloadJSON)).As(colPayload),
			goqu.L(castJsonb, string(event.MetadataJSON)).As(colMetadata),
		)

		if valuesStmt == nil {
			valuesStmt = eventStmt
			continue
		}

		valuesStmt = valuesStmt.UnionAll(eventStmt)
	}

	insertStmt := builder.
		Insert(es.eventTableName).
		Prepared(true).
		Cols(colEventType, colOccurredAt, colPayload, colMetadata).
		With(cteContext, cteStmt).
		With(cteVals, valuesStmt).
		FromQuery(
			builder.From(cteContext, cteVals).
				Select(
					goqu.I(fmt.Sprintf("%s.%s", cteVals, colEventType)),
					goqu.I(fmt.Sprintf("%s.%s", cteVals, colOccurredAt)),
					goqu.I(fmt.Sprintf("%s.%s", cteVals, colPayload)),
					goqu.I(fmt.Sprintf("%s.%s", cteVals, colMetadata)),
				).
				Where(goqu.COALESCE(goqu.C(aliasMaxSeq), 0).Eq(goqu.V(expectedMaxSequenceNumber))),
		)

	sqlQuery, args, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

// buildWhereExpression returns nil for a filter that matches any event.
func buildWhereExpression(filter eventstore.Filter) (exp.Expression, error) {
	if len(filter.Items()) == 0 {
		return nil, nil
	}

	itemsExpressions := make([]exp.Expression, 0, len(filter.Items()))

	for _, item := range filter.Items() {
		itemExpressions := make([]exp.Expression, 0, 2)

		if len(item.EventTypes()) > 0 {
			itemExpressions = append(itemExpressions, goqu.C(colEventType).In(item.EventTypes()))
		}

		predicateExpressions := make([]exp.Expression, 0, len(item.Predicates()))
		for _, predicate := range item.Predicates() {
			predicateJSON, marshalErr := jsoniter.ConfigFastest.Marshal(map[string]string{predicate.Key(): predicate.Val()})
			if marshalErr != nil {
				return nil, errors.Join(eventstore.ErrBuildingQueryFailed, marshalErr)
			}

			predicateExpressions = append(predicateExpressions, goqu.L(payloadContains, string(predicateJSON)))
		}

		if len(predicateExpressions) > 0 {
			if item.AllPredicatesMustMatch() {
				itemExpressions = append(itemExpressions, goqu.And(predicateExpressions...))
			} else {
				itemExpressions = append(itemExpressions, goqu.Or(predicateExpressions...))
			}
		}

		if len(itemExpressions) == 0 {
			// an empty item matches any event
			return nil, nil
		}

		itemsExpressions = append(itemsExpressions, goqu.And(itemExpressions...))
	}

	return goqu.Or(itemsExpressions...), nil
}
