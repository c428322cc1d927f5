// Package eventstore is the append-only log under the circulation ledger.
//
// There are no aggregate streams. A Filter selects the events a decision depends on, e.g. the stock
// events of one book plus the loan events of one user, and that selection is the dynamic event stream.
// A writer queries with the filter, decides, and appends with the same filter and the max sequence
// number it saw. The append succeeds only if no matching event was written in between; otherwise it
// fails with ErrConcurrencyConflict and nothing is stored.
//
// Filters match on event types and on top-level string properties of the JSON payload:
//
//	filter := eventstore.BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(core.BookStockRegisteredEventType, core.AvailabilityAdjustedEventType).
//		AndAnyPredicateOf(eventstore.P("BookID", bookID)).
//		OrMatching().
//		AnyEventTypeOf(core.LoanIssuedEventType, core.LoanReturnedEventType).
//		AndAnyPredicateOf(eventstore.P("UserID", userID)).
//		Finalize()
//
//	events, maxSeq, err := store.Query(eventstore.WithStrongConsistency(ctx), filter)
//	// decide on events ...
//	err = store.Append(ctx, filter, maxSeq, issued, adjusted)
//
// The engines live in memengine (tests, single process) and postgresengine.
package eventstore
