// Package listloans implements the ListLoans query use case.
//
// It projects the loans matching a filter from one query of the event store, i.e. from one consistent
// snapshot. It is read-only and never generates events.
package listloans
