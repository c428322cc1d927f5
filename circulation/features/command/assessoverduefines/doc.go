// Package assessoverduefines implements the overdue sweep: it raises the fines of active loans that are
// past their due date to what the fine calculator computes as of the sweep time.
//
// The candidates are found on one snapshot of all loan events. Each candidate is then assessed in its own
// Query-Decide-Append cycle guarded by the events of that loan, so a sweep never blocks borrowing and a
// concurrent return or payment simply makes the assessment a no-op. The sweep is idempotent and can run
// on demand (Handle) or periodically (Runner).
package assessoverduefines
