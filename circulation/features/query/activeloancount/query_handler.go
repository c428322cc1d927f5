package activeloancount

import (
	"context"

	"github.com/shelfwise/circulation/circulation/policy"
	"github.com/shelfwise/circulation/circulation/shared/shell"
	"github.com/shelfwise/circulation/eventstore"
)

// QueryHandler orchestrates the query processing workflow: Query -> Unmarshal -> Project.
type QueryHandler struct {
	eventStore      shell.QueriesEvents
	borrowingPolicy policy.BorrowingPolicy
}

// NewQueryHandler creates a new QueryHandler evaluating borrowingPolicy.
func NewQueryHandler(eventStore shell.QueriesEvents, borrowingPolicy policy.BorrowingPolicy) QueryHandler {
	return QueryHandler{
		eventStore:      eventStore,
		borrowingPolicy: borrowingPolicy,
	}
}

// Handle executes the query with eventual consistency.
func (h QueryHandler) Handle(ctx context.Context, query Query) (ActiveLoanCount, error) {
	ctx = eventstore.WithEventualConsistency(ctx)

	storableEvents, maxSequenceNumber, err := h.eventStore.Query(ctx, BuildEventFilter(query.UserID))
	if err != nil {
		return ActiveLoanCount{}, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return ActiveLoanCount{}, err
	}

	return Project(history, query, h.borrowingPolicy, maxSequenceNumber), nil
}
