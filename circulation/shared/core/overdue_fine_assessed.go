package core

import (
	"time"
)

// OverdueFineAssessedEventType is the event type identifier.
const OverdueFineAssessedEventType = "OverdueFineAssessed"

// OverdueFineAssessed raises the fine of an active, overdue loan to the amount accrued as of AssessedAsOf.
type OverdueFineAssessed struct {
	LoanID       LoanIDString
	UserID       UserIDString
	BookID       BookIDString
	FineAmount   Money
	AssessedAsOf time.Time
	OccurredAt   OccurredAtTS
}

// BuildOverdueFineAssessed creates a new OverdueFineAssessed event.
func BuildOverdueFineAssessed(
	loanID LoanIDString,
	userID UserIDString,
	bookID BookIDString,
	fineAmount Money,
	assessedAsOf time.Time,
	occurredAt time.Time,
) OverdueFineAssessed {

	return OverdueFineAssessed{
		LoanID:       loanID,
		UserID:       userID,
		BookID:       bookID,
		FineAmount:   fineAmount,
		AssessedAsOf: ToOccurredAt(assessedAsOf),
		OccurredAt:   ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e OverdueFineAssessed) IsEventType() string {
	return OverdueFineAssessedEventType
}

// HasOccurredAt returns when this event occurred.
func (e OverdueFineAssessed) HasOccurredAt() time.Time {
	return e.OccurredAt
}
