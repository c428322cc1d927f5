// Package memengine provides an in-memory implementation of the dynamic event stream store.
//
// It honours the same contract as the postgresengine: Query returns the matching events in
// sequence order plus the max sequence number of the stream, and Append only succeeds when the
// max sequence number of the filter is still the expected one. A single mutex serializes all
// appends, so it is suitable for tests and single-process deployments only.
package memengine
