package outstandingfines

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

// Handle executes the query with eventual consistency.
func (h QueryHandler) Handle(ctx context.Context, query Query) (OutstandingFines, error) {
	ctx = eventstore.WithEventualConsistency(ctx)

	storableEvents, maxSequenceNumber, err := h.eventStore.Query(ctx, BuildEventFilter(query.UserID))
	if err != nil {
		return OutstandingFines{}, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return OutstandingFines{}, err
	}

	return Project(history, query, maxSequenceNumber), nil
}
