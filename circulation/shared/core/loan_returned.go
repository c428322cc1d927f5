package core

import (
	"time"
)

// LoanReturnedEventType is the event type identifier.
const LoanReturnedEventType = "LoanReturned"

// LoanReturned finalizes a loan. FineAmount is the fine in force after the return.
type LoanReturned struct {
	LoanID     LoanIDString
	UserID     UserIDString
	BookID     BookIDString
	ReturnDate time.Time
	FineAmount Money
	OccurredAt OccurredAtTS
}

// BuildLoanReturned creates a new LoanReturned event.
func BuildLoanReturned(
	loanID LoanIDString,
	userID UserIDString,
	bookID BookIDString,
	returnDate time.Time,
	fineAmount Money,
	occurredAt time.Time,
) LoanReturned {

	return LoanReturned{
		LoanID:     loanID,
		UserID:     userID,
		BookID:     bookID,
		ReturnDate: ToOccurredAt(returnDate),
		FineAmount: fineAmount,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e LoanReturned) IsEventType() string {
	return LoanReturnedEventType
}

// HasOccurredAt returns when this event occurred.
func (e LoanReturned) HasOccurredAt() time.Time {
	return e.OccurredAt
}
