package core

import (
	"time"
)

// LoanIssuedEventType is the event type identifier.
const LoanIssuedEventType = "LoanIssued"

// LoanIssued represents a book copy handed out to a user, either self-service or by an admin.
type LoanIssued struct {
	LoanID     LoanIDString
	UserID     UserIDString
	BookID     BookIDString
	IssuedBy   UserIDString
	IssuerKind IssuerKind
	IssueDate  time.Time
	DueDate    time.Time
	OccurredAt OccurredAtTS
}

// BuildLoanIssued creates a new LoanIssued event.
func BuildLoanIssued(
	loanID LoanIDString,
	userID UserIDString,
	bookID BookIDString,
	issuedBy UserIDString,
	issuerKind IssuerKind,
	issueDate time.Time,
	dueDate time.Time,
	occurredAt time.Time,
) LoanIssued {

	return LoanIssued{
		LoanID:     loanID,
		UserID:     userID,
		BookID:     bookID,
		IssuedBy:   issuedBy,
		IssuerKind: issuerKind,
		IssueDate:  ToOccurredAt(issueDate),
		DueDate:    ToOccurredAt(dueDate),
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e LoanIssued) IsEventType() string {
	return LoanIssuedEventType
}

// HasOccurredAt returns when this event occurred.
func (e LoanIssued) HasOccurredAt() time.Time {
	return e.OccurredAt
}
