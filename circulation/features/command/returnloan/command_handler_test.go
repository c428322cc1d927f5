package returnloan_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation/circulation/catalog"
	"github.com/shelfwise/circulation/circulation/features/command/issueloan"
	"github.com/shelfwise/circulation/circulation/features/command/returnloan"
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/eventstore/memengine"
)

func setupTestEnvironment(t *testing.T) (*memengine.EventStore, catalog.Accessor, string) {
	t.Helper()

	ctx := context.Background()
	store, err := memengine.NewEventStore()
	require.NoError(t, err)

	accessor := catalog.NewAccessor(store)
	_, err = accessor.RegisterStock(ctx, "book-1", "Dune", 3)
	require.NoError(t, err)

	issue := issueloan.BuildCommand(
		issueloan.NewLoanID(), "user-1", "book-1", issueloan.Self("user-1"),
		time.Time{}, time.Time{}, fakeClock,
	)
	result, _, err := issueloan.NewCommandHandler(store).Handle(ctx, issue)
	require.NoError(t, err)
	require.Equal(t, 2, result.AvailableCopies)

	return store, accessor, result.LoanID
}

func Test_CommandHandler_Handle_ReturnWithFine(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, accessor, loanID := setupTestEnvironment(t)
	handler := returnloan.NewCommandHandler(store, newCalculator(t))
	returnDate := fakeClock.AddDate(0, 0, 10)

	// act
	result, handlerResult, err := handler.Handle(ctx, returnloan.BuildCommand(loanID, borrower, returnDate, returnDate))

	// assert
	require.NoError(t, err)
	assert.False(t, handlerResult.Idempotent)
	assert.Equal(t, core.Money(30), result.FineAmount)
	assert.Equal(t, "book-1", result.BookID)
	assert.Equal(t, 3, result.AvailableCopies)
	availability, err := accessor.GetAvailability(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 3, availability.AvailableCopies)
}

func Test_CommandHandler_Handle_DoubleReturn(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, accessor, loanID := setupTestEnvironment(t)
	handler := returnloan.NewCommandHandler(store, newCalculator(t))
	_, _, err := handler.Handle(ctx, returnloan.BuildCommand(loanID, borrower, time.Time{}, fakeClock.Add(time.Hour)))
	require.NoError(t, err)
	eventsBefore := store.EventCount()

	// act
	_, _, err = handler.Handle(ctx, returnloan.BuildCommand(loanID, borrower, time.Time{}, fakeClock.Add(2*time.Hour)))

	// assert
	assert.ErrorIs(t, err, core.ErrAlreadyReturned)
	assert.Equal(t, loanID, core.AsError(err).LoanID)
	assert.Equal(t, eventsBefore, store.EventCount())
	availability, err := accessor.GetAvailability(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 3, availability.AvailableCopies)
}

func Test_CommandHandler_Handle_UnknownLoan(t *testing.T) {
	// arrange
	store, _, _ := setupTestEnvironment(t)
	handler := returnloan.NewCommandHandler(store, newCalculator(t))

	// act
	_, handlerResult, err := handler.Handle(context.Background(), returnloan.BuildCommand("loan-unknown", borrower, time.Time{}, fakeClock))

	// assert
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, 1, handlerResult.RetryAttempts)
}

func Test_CommandHandler_Handle_ForbiddenForOtherUser(t *testing.T) {
	// arrange
	store, _, loanID := setupTestEnvironment(t)
	handler := returnloan.NewCommandHandler(store, newCalculator(t))
	stranger := core.Actor{UserID: "user-2", Role: core.RoleUser}

	// act
	_, _, err := handler.Handle(context.Background(), returnloan.BuildCommand(loanID, stranger, time.Time{}, fakeClock))

	// assert
	assert.ErrorIs(t, err, core.ErrForbidden)
}
