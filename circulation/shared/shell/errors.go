package shell

import (
	"context"
	"errors"

	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/eventstore"
)

// ErrUnexpectedEventCount is returned when a decision does not produce the events a command needs.
var ErrUnexpectedEventCount = errors.New("unexpected number of events in decision")

// IsCancellationError checks if the error is due to context cancellation.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTimeoutError checks if the error is due to context deadline exceeded.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// IsConcurrencyConflictError checks if the error is due to a lost optimistic concurrency race.
func IsConcurrencyConflictError(err error) bool {
	return errors.Is(err, eventstore.ErrConcurrencyConflict)
}

// IsBusinessRuleViolation checks if the error is a circulation error that the caller has to resolve,
// as opposed to a conflict or an infrastructure failure.
func IsBusinessRuleViolation(err error) bool {
	switch core.KindOf(err) {
	case "", core.KindConflict, core.KindInternal:
		return false
	default:
		return true
	}
}
