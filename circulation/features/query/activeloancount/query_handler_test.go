package activeloancount_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation/circulation/catalog"
	"github.com/shelfwise/circulation/circulation/features/command/issueloan"
	"github.com/shelfwise/circulation/circulation/features/command/returnloan"
	"github.com/shelfwise/circulation/circulation/features/query/activeloancount"
	"github.com/shelfwise/circulation/circulation/fines"
	"github.com/shelfwise/circulation/circulation/policy"
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/eventstore/memengine"
)

var fakeClock = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func Test_QueryHandler_Handle(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, err := memengine.NewEventStore()
	require.NoError(t, err)
	_, err = catalog.NewAccessor(store).RegisterStock(ctx, "book-1", "Dune", 3)
	require.NoError(t, err)
	calculator, err := fines.NewCalculator()
	require.NoError(t, err)

	issueHandler := issueloan.NewCommandHandler(store)
	loanIDs := make([]string, 0, 2)
	for range 2 {
		result, _, issueErr := issueHandler.Handle(ctx, issueloan.BuildCommand(
			issueloan.NewLoanID(), "user-1", "book-1", issueloan.Self("user-1"),
			time.Time{}, time.Time{}, fakeClock,
		))
		require.NoError(t, issueErr)
		loanIDs = append(loanIDs, result.LoanID)
	}

	handler := activeloancount.NewQueryHandler(store, policy.NewBorrowingPolicy())
	user1 := core.Actor{UserID: "user-1", Role: core.RoleUser}

	// act
	atCap, atCapErr := handler.Handle(ctx, activeloancount.BuildQuery("user-1"))
	_, _, err = returnloan.NewCommandHandler(store, calculator).
		Handle(ctx, returnloan.BuildCommand(loanIDs[0], user1, time.Time{}, fakeClock.Add(time.Hour)))
	require.NoError(t, err)
	belowCap, belowCapErr := handler.Handle(ctx, activeloancount.BuildQuery("user-1"))
	other, otherErr := handler.Handle(ctx, activeloancount.BuildQuery("user-2"))

	// assert
	require.NoError(t, atCapErr)
	require.NoError(t, belowCapErr)
	require.NoError(t, otherErr)
	assert.Equal(t, 2, atCap.ActiveLoans)
	assert.False(t, atCap.CanBorrow)
	assert.Equal(t, 1, belowCap.ActiveLoans)
	assert.True(t, belowCap.CanBorrow)
	assert.Equal(t, activeloancount.ActiveLoanCount{UserID: "user-2", ActiveLoans: 0, CanBorrow: true}, other)
}
