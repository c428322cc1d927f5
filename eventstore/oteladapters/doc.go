// Package oteladapters implements the observability interfaces of the eventstore package
// (ContextualLogger, MetricsCollector, TracingCollector) with OpenTelemetry.
//
// The circulation engine uses the same adapters for its own command and query instrumentation,
// so event store spans nest under the spans of the business operation that issued them.
package oteladapters
