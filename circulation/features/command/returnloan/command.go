package returnloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation/circulation/shared/core"
)

const commandType = "ReturnLoan"

// Command represents the intent of Actor to return the loan LoanID.
// A non-empty OwnerID must match the borrower of the loan.
type Command struct {
	CommandID  uuid.UUID
	LoanID     core.LoanIDString
	Actor      core.Actor
	OwnerID    core.UserIDString
	ReturnDate time.Time
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command. A zero returnDate means occurredAt.
func BuildCommand(loanID core.LoanIDString, actor core.Actor, returnDate time.Time, occurredAt time.Time) Command {
	if returnDate.IsZero() {
		returnDate = occurredAt
	}

	return Command{
		CommandID:  uuid.New(),
		LoanID:     loanID,
		Actor:      actor,
		ReturnDate: core.ToOccurredAt(returnDate),
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}

// WithOwner returns a copy of the command that only applies if the loan belongs to ownerID.
func (c Command) WithOwner(ownerID core.UserIDString) Command {
	c.OwnerID = ownerID

	return c
}
