// Package testdoubles provides spies for the observability interfaces of the eventstore package:
//   - MetricsCollectorSpy: captures counters, durations, and values
//   - TracingCollectorSpy: captures started and finished spans
//   - ContextualLoggerSpy: captures log calls with their level, message, and args
//
// They let tests verify instrumentation without a telemetry backend. All spies are safe for concurrent use.
package testdoubles
