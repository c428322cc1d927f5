package outstandingfines_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation/circulation/catalog"
	"github.com/shelfwise/circulation/circulation/features/command/issueloan"
	"github.com/shelfwise/circulation/circulation/features/command/returnloan"
	"github.com/shelfwise/circulation/circulation/features/query/outstandingfines"
	"github.com/shelfwise/circulation/circulation/fines"
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/eventstore/memengine"
)

func Test_QueryHandler_Handle_AfterLateReturn(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, err := memengine.NewEventStore()
	require.NoError(t, err)
	_, err = catalog.NewAccessor(store).RegisterStock(ctx, "book-1", "Dune", 3)
	require.NoError(t, err)
	calculator, err := fines.NewCalculator()
	require.NoError(t, err)

	issued, _, err := issueloan.NewCommandHandler(store).Handle(ctx, issueloan.BuildCommand(
		issueloan.NewLoanID(), "user-1", "book-1", issueloan.Self("user-1"),
		time.Time{}, time.Time{}, fakeClock,
	))
	require.NoError(t, err)
	returnDate := fakeClock.AddDate(0, 0, 10)
	_, _, err = returnloan.NewCommandHandler(store, calculator).Handle(ctx, returnloan.BuildCommand(
		issued.LoanID, core.Actor{UserID: "user-1", Role: core.RoleUser}, returnDate, returnDate,
	))
	require.NoError(t, err)

	// act
	result, err := outstandingfines.NewQueryHandler(store).Handle(ctx, outstandingfines.BuildQuery("user-1"))

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.Money(30), result.TotalOutstanding)
	assert.Equal(t, 1, result.UnpaidLoans)
}
