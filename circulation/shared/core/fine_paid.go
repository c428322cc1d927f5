package core

import (
	"time"
)

// FinePaidEventType is the event type identifier.
const FinePaidEventType = "FinePaid"

// FinePaid records a payment towards the fine of a loan.
// PaidTotal is the cumulative amount paid, FullyPaid flips the payment status of the loan.
type FinePaid struct {
	LoanID     LoanIDString
	UserID     UserIDString
	BookID     BookIDString
	Amount     Money
	PaidTotal  Money
	FullyPaid  bool
	OccurredAt OccurredAtTS
}

// BuildFinePaid creates a new FinePaid event.
func BuildFinePaid(
	loanID LoanIDString,
	userID UserIDString,
	bookID BookIDString,
	amount Money,
	paidTotal Money,
	fullyPaid bool,
	occurredAt time.Time,
) FinePaid {

	return FinePaid{
		LoanID:     loanID,
		UserID:     userID,
		BookID:     bookID,
		Amount:     amount,
		PaidTotal:  paidTotal,
		FullyPaid:  fullyPaid,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e FinePaid) IsEventType() string {
	return FinePaidEventType
}

// HasOccurredAt returns when this event occurred.
func (e FinePaid) HasOccurredAt() time.Time {
	return e.OccurredAt
}
