package issueloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation/circulation/shared/core"
)

const (
	commandType = "IssueLoan"

	// DefaultBorrowingPeriod is the time from issue to due date unless a due date is given.
	DefaultBorrowingPeriod = 7 * 24 * time.Hour
)

// Issuer is the actor on whose behalf a loan is issued.
type Issuer struct {
	ID   core.UserIDString
	Kind core.IssuerKind
}

// Self is a user borrowing for themselves.
func Self(userID core.UserIDString) Issuer {
	return Issuer{ID: userID, Kind: core.IssuerKindSelf}
}

// Admin is an admin issuing a loan to a user.
func Admin(adminID core.UserIDString) Issuer {
	return Issuer{ID: adminID, Kind: core.IssuerKindAdmin}
}

// Command represents the intent to issue a copy of BookID to UserID.
// LoanID is assigned when the command is built, so handling the same command twice is idempotent.
type Command struct {
	CommandID  uuid.UUID
	LoanID     uuid.UUID
	UserID     core.UserIDString
	BookID     core.BookIDString
	Issuer     Issuer
	IssueDate  time.Time
	DueDate    time.Time
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command. A zero issueDate means occurredAt, a zero dueDate means
// issueDate plus DefaultBorrowingPeriod.
func BuildCommand(
	loanID uuid.UUID,
	userID core.UserIDString,
	bookID core.BookIDString,
	issuer Issuer,
	issueDate time.Time,
	dueDate time.Time,
	occurredAt time.Time,
) Command {

	if issueDate.IsZero() {
		issueDate = occurredAt
	}

	if dueDate.IsZero() {
		dueDate = issueDate.Add(DefaultBorrowingPeriod)
	}

	return Command{
		CommandID:  uuid.New(),
		LoanID:     loanID,
		UserID:     userID,
		BookID:     bookID,
		Issuer:     issuer,
		IssueDate:  core.ToOccurredAt(issueDate),
		DueDate:    core.ToOccurredAt(dueDate),
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}

// NewLoanID returns a time-ordered id for a new loan.
func NewLoanID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}

	return id
}
