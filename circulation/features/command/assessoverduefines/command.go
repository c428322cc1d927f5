package assessoverduefines

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation/circulation/shared/core"
)

const commandType = "AssessOverdueFines"

// Command represents the intent to assess the fines of all overdue loans as of AsOf.
type Command struct {
	CommandID  uuid.UUID
	AsOf       time.Time
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command. A zero asOf means occurredAt.
func BuildCommand(asOf time.Time, occurredAt time.Time) Command {
	if asOf.IsZero() {
		asOf = occurredAt
	}

	return Command{
		CommandID:  uuid.New(),
		AsOf:       core.ToOccurredAt(asOf),
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
