package postgresengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shelfwise/circulation/eventstore"
)

const (
	spanNameQuery  = "eventstore.query"
	spanNameAppend = "eventstore.append"

	metricQueryDuration        = "eventstore_query_duration_seconds"
	metricAppendDuration       = "eventstore_append_duration_seconds"
	metricEventsQueried        = "eventstore_events_queried_total"
	metricEventsAppended       = "eventstore_events_appended_total"
	metricConcurrencyConflicts = "eventstore_concurrency_conflicts_total"
	metricDatabaseErrors       = "eventstore_database_errors_total"

	operationQuery  = "query"
	operationAppend = "append"

	statusSuccess = "success"
	statusError   = "error"

	spanAttrOperation    = "operation"
	spanAttrStatus       = "status"
	spanAttrErrorType    = "error_type"
	spanAttrEventCount   = "event_count"
	spanAttrEventType    = "event_type"
	spanAttrMaxSequence  = "max_sequence"
	spanAttrExpectedSeq  = "expected_sequence"
	spanAttrRowsAffected = "rows_affected"
	spanAttrDurationMS   = "duration_ms"
	spanAttrConsistency  = "consistency"

	errorTypeBuildQuery          = "build_query"
	errorTypeDatabaseQuery       = "database_query"
	errorTypeDatabaseExec        = "database_exec"
	errorTypeRowScan             = "row_scan"
	errorTypeLocking             = "locking"
	errorTypeConcurrencyConflict = "concurrency_conflict"
)

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

/***** logging *****/

// logQueryWithDuration logs SQL at debug level.
func (es *EventStore) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	if es.logger != nil {
		es.logger.Debug(logMsgSQLExecuted+action, args...)
	}

	if es.contextualLogger != nil {
		es.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	}
}

// logOperation logs operational information at info level.
func (es *EventStore) logOperation(ctx context.Context, action string, args ...any) {
	if es.logger != nil {
		es.logger.Info(logMsgOperation+action, args...)
	}

	if es.contextualLogger != nil {
		es.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

func (es *EventStore) logWarn(ctx context.Context, message string, args ...any) {
	if es.logger != nil {
		es.logger.Warn(message, args...)
	}

	if es.contextualLogger != nil {
		es.contextualLogger.WarnContext(ctx, message, args...)
	}
}

func (es *EventStore) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if es.logger != nil {
		es.logger.Error(message, allArgs...)
	}

	if es.contextualLogger != nil {
		es.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

/***** metrics *****/

type queryMetricsObserver struct {
	es  *EventStore
	ctx context.Context
}

type appendMetricsObserver struct {
	es  *EventStore
	ctx context.Context
}

func (es *EventStore) startQueryMetrics(ctx context.Context) *queryMetricsObserver {
	return &queryMetricsObserver{es: es, ctx: ctx}
}

func (es *EventStore) startAppendMetrics(ctx context.Context) *appendMetricsObserver {
	return &appendMetricsObserver{es: es, ctx: ctx}
}

func (qmo *queryMetricsObserver) recordSuccess(eventStream eventstore.StorableEvents, duration time.Duration) {
	qmo.es.recordDuration(qmo.ctx, metricQueryDuration, duration, operationQuery, statusSuccess)
	qmo.es.recordValue(qmo.ctx, metricEventsQueried, float64(len(eventStream)), operationQuery, statusSuccess)
}

func (qmo *queryMetricsObserver) recordError(errorType string, duration time.Duration) {
	qmo.es.recordDuration(qmo.ctx, metricQueryDuration, duration, operationQuery, statusError)
	qmo.es.incrementCounter(qmo.ctx, metricDatabaseErrors, map[string]string{
		spanAttrOperation: operationQuery,
		spanAttrStatus:    statusError,
		spanAttrErrorType: errorType,
	})
}

func (amo *appendMetricsObserver) recordSuccess(eventCount int, duration time.Duration) {
	amo.es.recordDuration(amo.ctx, metricAppendDuration, duration, operationAppend, statusSuccess)
	amo.es.recordValue(amo.ctx, metricEventsAppended, float64(eventCount), operationAppend, statusSuccess)
}

func (amo *appendMetricsObserver) recordError(errorType string, duration time.Duration) {
	amo.es.recordDuration(amo.ctx, metricAppendDuration, duration, operationAppend, statusError)
	amo.es.incrementCounter(amo.ctx, metricDatabaseErrors, map[string]string{
		spanAttrOperation: operationAppend,
		spanAttrStatus:    statusError,
		spanAttrErrorType: errorType,
	})
}

func (amo *appendMetricsObserver) recordConcurrencyConflict() {
	amo.es.incrementCounter(amo.ctx, metricConcurrencyConflicts, map[string]string{
		spanAttrOperation: operationAppend,
		"conflict_type":   "concurrency",
	})
}

// The helpers below use the context-aware methods when the collector supports them.

func (es *EventStore) recordDuration(ctx context.Context, metric string, duration time.Duration, operation, status string) {
	if es.metricsCollector == nil {
		return
	}

	labels := map[string]string{spanAttrOperation: operation, spanAttrStatus: status}

	if contextual, ok := es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	es.metricsCollector.RecordDuration(metric, duration, labels)
}

func (es *EventStore) recordValue(ctx context.Context, metric string, value float64, operation, status string) {
	if es.metricsCollector == nil {
		return
	}

	labels := map[string]string{spanAttrOperation: operation, spanAttrStatus: status}

	if contextual, ok := es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metric, value, labels)
		return
	}

	es.metricsCollector.RecordValue(metric, value, labels)
}

func (es *EventStore) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if es.metricsCollector == nil {
		return
	}

	if contextual, ok := es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	es.metricsCollector.IncrementCounter(metric, labels)
}

/***** tracing *****/

type queryTracingObserver struct {
	es   *EventStore
	span eventstore.SpanContext
}

type appendTracingObserver struct {
	es   *EventStore
	span eventstore.SpanContext
}

func (es *EventStore) startQueryTracing(ctx context.Context) (*queryTracingObserver, context.Context) {
	observer := &queryTracingObserver{es: es}
	if es.tracingCollector == nil {
		return observer, ctx
	}

	newCtx, span := es.tracingCollector.StartSpan(ctx, spanNameQuery, map[string]string{
		spanAttrOperation:   operationQuery,
		spanAttrConsistency: eventstore.GetConsistencyLevel(ctx).String(),
	})
	observer.span = span

	return observer, newCtx
}

func (es *EventStore) startAppendTracing(
	ctx context.Context,
	events eventstore.StorableEvents,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (*appendTracingObserver, context.Context) {

	observer := &appendTracingObserver{es: es}
	if es.tracingCollector == nil {
		return observer, ctx
	}

	attrs := map[string]string{
		spanAttrOperation:   operationAppend,
		spanAttrEventCount:  fmt.Sprintf("%d", len(events)),
		spanAttrExpectedSeq: fmt.Sprintf("%d", expectedMaxSequenceNumber),
	}

	if len(events) > 0 {
		attrs[spanAttrEventType] = events[0].EventType
	}

	newCtx, span := es.tracingCollector.StartSpan(ctx, spanNameAppend, attrs)
	observer.span = span

	return observer, newCtx
}

func (qto *queryTracingObserver) finishSuccess(
	eventStream eventstore.StorableEvents,
	maxSequenceNumber eventstore.MaxSequenceNumberUint,
	duration time.Duration,
) {
	if qto.span == nil {
		return
	}

	qto.es.tracingCollector.FinishSpan(qto.span, statusSuccess, map[string]string{
		spanAttrEventCount:  fmt.Sprintf("%d", len(eventStream)),
		spanAttrMaxSequence: fmt.Sprintf("%d", maxSequenceNumber),
		spanAttrDurationMS:  fmt.Sprintf("%.2f", toMilliseconds(duration)),
	})
}

func (qto *queryTracingObserver) finishError(errorType string, duration time.Duration) {
	if qto.span == nil {
		return
	}

	qto.es.tracingCollector.FinishSpan(qto.span, statusError, map[string]string{
		spanAttrErrorType:  errorType,
		spanAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration)),
	})
}

func (ato *appendTracingObserver) finishSuccess(rowsAffected int64, duration time.Duration) {
	if ato.span == nil {
		return
	}

	ato.es.tracingCollector.FinishSpan(ato.span, statusSuccess, map[string]string{
		spanAttrRowsAffected: fmt.Sprintf("%d", rowsAffected),
		spanAttrDurationMS:   fmt.Sprintf("%.2f", toMilliseconds(duration)),
	})
}

func (ato *appendTracingObserver) finishError(errorType string, duration time.Duration) {
	if ato.span == nil {
		return
	}

	ato.es.tracingCollector.FinishSpan(ato.span, statusError, map[string]string{
		spanAttrErrorType:  errorType,
		spanAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration)),
	})
}
