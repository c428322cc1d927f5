package payfine

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation/circulation/shared/core"
)

const commandType = "PayFine"

// Command represents the intent of Actor to pay Amount towards the fine of LoanID.
type Command struct {
	CommandID  uuid.UUID
	LoanID     core.LoanIDString
	Actor      core.Actor
	Amount     core.Money
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command.
func BuildCommand(loanID core.LoanIDString, actor core.Actor, amount core.Money, occurredAt time.Time) Command {
	return Command{
		CommandID:  uuid.New(),
		LoanID:     loanID,
		Actor:      actor,
		Amount:     amount,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
