// Package config loads the settings of the circulation service and builds the infrastructure they describe:
// PostgreSQL connections (pgx.Pool, sql.DB, or sqlx.DB), the event store on top of them, and the
// OpenTelemetry providers.
//
// Settings are resolved in three layers: built-in defaults, then an optional YAML file, then
// CIRCULATION_* environment variables.
package config
