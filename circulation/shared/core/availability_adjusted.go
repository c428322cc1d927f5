package core

import (
	"time"
)

// AvailabilityAdjustedEventType is the event type identifier.
const AvailabilityAdjustedEventType = "AvailabilityAdjusted"

// AvailabilityAdjusted records a change of the available-copy counter of a book caused by a loan.
type AvailabilityAdjusted struct {
	BookID          BookIDString
	LoanID          LoanIDString
	Delta           int
	AvailableCopies int
	OccurredAt      OccurredAtTS
}

// BuildAvailabilityAdjusted creates a new AvailabilityAdjusted event.
func BuildAvailabilityAdjusted(
	bookID BookIDString,
	loanID LoanIDString,
	delta int,
	availableCopies int,
	occurredAt time.Time,
) AvailabilityAdjusted {

	return AvailabilityAdjusted{
		BookID:          bookID,
		LoanID:          loanID,
		Delta:           delta,
		AvailableCopies: availableCopies,
		OccurredAt:      ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e AvailabilityAdjusted) IsEventType() string {
	return AvailabilityAdjustedEventType
}

// HasOccurredAt returns when this event occurred.
func (e AvailabilityAdjusted) HasOccurredAt() time.Time {
	return e.OccurredAt
}
