package listloans

import (
	"context"

	"github.com/shelfwise/circulation/circulation/shared/shell"
	"github.com/shelfwise/circulation/eventstore"
)

// QueryHandler orchestrates the query processing workflow: Query -> Unmarshal -> Project.
type QueryHandler struct {
	eventStore shell.QueriesEvents
}

// NewQueryHandler creates a new QueryHandler with the provided EventStore dependency.
func NewQueryHandler(eventStore shell.QueriesEvents) QueryHandler {
	return QueryHandler{
		eventStore: eventStore,
	}
}

// Handle executes the query. It reads with eventual consistency, so a configured replica may serve it.
func (h QueryHandler) Handle(ctx context.Context, query Query) (LoanList, error) {
	filter := BuildEventFilter(query.Filter.UserID)

	ctx = eventstore.WithEventualConsistency(ctx)

	storableEvents, maxSequenceNumber, err := h.eventStore.Query(ctx, filter)
	if err != nil {
		return LoanList{}, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return LoanList{}, err
	}

	return Project(history, query, maxSequenceNumber), nil
}
