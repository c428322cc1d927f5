// Package observable wraps command and query handlers with metrics, tracing, and logging.
//
// Handlers stay free of observability code; the wrappers translate their results into
// metrics (duration, calls, idempotent/rejected/conflict counters), spans, and log lines:
//
//	handler := issueloan.NewCommandHandler(store, catalog, policy)
//	wrapped, err := observable.NewCommandWrapper(handler,
//		observable.WithCommandMetrics[issueloan.Command, issueloan.Result](metrics),
//		observable.WithCommandTracing[issueloan.Command, issueloan.Result](tracing),
//	)
package observable
