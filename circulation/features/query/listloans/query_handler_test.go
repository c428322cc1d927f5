package listloans_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation/circulation/catalog"
	"github.com/shelfwise/circulation/circulation/features/command/issueloan"
	"github.com/shelfwise/circulation/circulation/features/query/listloans"
	"github.com/shelfwise/circulation/eventstore/memengine"
)

func Test_QueryHandler_Handle_ListsLoansOfUser(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, err := memengine.NewEventStore()
	require.NoError(t, err)
	_, err = catalog.NewAccessor(store).RegisterStock(ctx, "book-1", "Dune", 3)
	require.NoError(t, err)

	issueHandler := issueloan.NewCommandHandler(store)
	for _, userID := range []string{"user-1", "user-2", "user-1"} {
		_, _, err = issueHandler.Handle(ctx, issueloan.BuildCommand(
			issueloan.NewLoanID(), userID, "book-1", issueloan.Self(userID),
			time.Time{}, time.Time{}, fakeClock,
		))
		require.NoError(t, err)
	}

	handler := listloans.NewQueryHandler(store)

	// act
	result, err := handler.Handle(ctx, listloans.BuildQuery(listloans.Filter{UserID: "user-1", OnlyActive: true}, fakeClock))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	for _, loan := range result.Loans {
		assert.Equal(t, "user-1", loan.UserID)
		assert.Equal(t, "book-1", loan.BookID)
		assert.True(t, loan.IsActive())
	}
	assert.Positive(t, result.SequenceNumber)
}

func Test_QueryHandler_Handle_EmptyStore(t *testing.T) {
	// arrange
	store, err := memengine.NewEventStore()
	require.NoError(t, err)

	// act
	result, err := listloans.NewQueryHandler(store).Handle(context.Background(), listloans.BuildQuery(listloans.Filter{}, fakeClock))

	// assert
	require.NoError(t, err)
	assert.NotNil(t, result.Loans)
	assert.Equal(t, 0, result.Count)
}
