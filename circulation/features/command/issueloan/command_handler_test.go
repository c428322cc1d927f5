package issueloan_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/shelfwise/circulation/circulation/catalog"
	"github.com/shelfwise/circulation/circulation/features/command/issueloan"
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/circulation/shared/shell"
	"github.com/shelfwise/circulation/eventstore"
	"github.com/shelfwise/circulation/eventstore/memengine"
)

func setupTestEnvironment(t *testing.T, bookID string, totalCopies int) (*memengine.EventStore, catalog.Accessor) {
	t.Helper()

	store, err := memengine.NewEventStore()
	require.NoError(t, err)

	accessor := catalog.NewAccessor(store)
	_, err = accessor.RegisterStock(context.Background(), bookID, "Dune", totalCopies)
	require.NoError(t, err)

	return store, accessor
}

func availableCopies(t *testing.T, accessor catalog.Accessor, bookID string) int {
	t.Helper()

	availability, err := accessor.GetAvailability(context.Background(), bookID)
	require.NoError(t, err)

	return availability.AvailableCopies
}

func Test_CommandHandler_Handle_Success(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, accessor := setupTestEnvironment(t, "book-1", 3)
	handler := issueloan.NewCommandHandler(store)
	command := borrowCommand(issueloan.NewLoanID(), "user-1", "book-1")

	// act
	result, handlerResult, err := handler.Handle(ctx, command)

	// assert
	require.NoError(t, err)
	assert.False(t, handlerResult.Idempotent)
	assert.Equal(t, 1, handlerResult.RetryAttempts)
	assert.Equal(t, command.LoanID.String(), result.LoanID)
	assert.Equal(t, 2, result.AvailableCopies)
	assert.Equal(t, 2, availableCopies(t, accessor, "book-1"))
}

func Test_CommandHandler_Handle_SameCommandTwiceIsIdempotent(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, accessor := setupTestEnvironment(t, "book-1", 3)
	handler := issueloan.NewCommandHandler(store)
	command := borrowCommand(issueloan.NewLoanID(), "user-1", "book-1")
	_, _, err := handler.Handle(ctx, command)
	require.NoError(t, err)
	eventsBefore := store.EventCount()

	// act
	result, handlerResult, err := handler.Handle(ctx, command)

	// assert
	require.NoError(t, err)
	assert.True(t, handlerResult.Idempotent)
	assert.Equal(t, 2, result.AvailableCopies)
	assert.Equal(t, eventsBefore, store.EventCount())
	assert.Equal(t, 2, availableCopies(t, accessor, "book-1"))
}

func Test_CommandHandler_Handle_ThirdBorrowViolatesPolicy(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, accessor := setupTestEnvironment(t, "book-1", 3)
	handler := issueloan.NewCommandHandler(store)
	for range 2 {
		_, _, err := handler.Handle(ctx, borrowCommand(issueloan.NewLoanID(), "user-1", "book-1"))
		require.NoError(t, err)
	}

	// act
	_, _, err := handler.Handle(ctx, borrowCommand(issueloan.NewLoanID(), "user-1", "book-1"))

	// assert
	assert.ErrorIs(t, err, core.ErrPolicyViolation)
	assert.Equal(t, "user-1", core.AsError(err).UserID)
	assert.Equal(t, 1, availableCopies(t, accessor, "book-1"))
}

func Test_CommandHandler_Handle_AdminIssueForUser(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, _ := setupTestEnvironment(t, "book-1", 1)
	handler := issueloan.NewCommandHandler(store)
	command := issueloan.BuildCommand(
		issueloan.NewLoanID(), "user-1", "book-1", issueloan.Admin("admin-1"),
		fakeClock, fakeClock.AddDate(0, 0, 14), fakeClock,
	)

	// act
	_, _, err := handler.Handle(ctx, command)

	// assert
	require.NoError(t, err)
	storableEvents, _, err := store.Query(ctx, eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.LoanIssuedEventType).
		Finalize())
	require.NoError(t, err)
	history, err := shell.DomainEventsFrom(storableEvents)
	require.NoError(t, err)
	require.Len(t, history, 1)
	issued := history[0].(core.LoanIssued)
	assert.Equal(t, "admin-1", issued.IssuedBy)
	assert.Equal(t, core.IssuerKindAdmin, issued.IssuerKind)
	assert.Equal(t, fakeClock.AddDate(0, 0, 14), issued.DueDate)
}

func Test_CommandHandler_Handle_ParallelBorrowsOfLastCopy(t *testing.T) {
	// arrange
	const borrowers = 10
	ctx := context.Background()
	store, accessor := setupTestEnvironment(t, "book-1", 1)
	handler := issueloan.NewCommandHandler(store)

	var mu sync.Mutex
	var succeeded int
	var failures []error

	// act
	var group errgroup.Group
	for range borrowers {
		userID := "user-" + uuid.NewString()
		group.Go(func() error {
			_, _, err := handler.Handle(ctx, borrowCommand(issueloan.NewLoanID(), userID, "book-1"))

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				succeeded++
			} else {
				failures = append(failures, err)
			}

			return nil
		})
	}
	require.NoError(t, group.Wait())

	// assert
	assert.Equal(t, 1, succeeded)
	assert.Len(t, failures, borrowers-1)
	for _, err := range failures {
		assert.True(
			t,
			errors.Is(err, core.ErrOutOfStock) || errors.Is(err, eventstore.ErrConcurrencyConflict),
			"unexpected error: %v", err,
		)
	}
	assert.Equal(t, 0, availableCopies(t, accessor, "book-1"))
}

func Test_CommandHandler_Handle_UnknownBook(t *testing.T) {
	// arrange
	store, _ := setupTestEnvironment(t, "book-1", 1)
	handler := issueloan.NewCommandHandler(store)

	// act
	_, handlerResult, err := handler.Handle(context.Background(), borrowCommand(issueloan.NewLoanID(), "user-1", "book-2"))

	// assert
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, 1, handlerResult.RetryAttempts)
}

func Test_CommandHandler_Handle_ParallelBorrowsOfOneUserRespectTheCap(t *testing.T) {
	// arrange
	const books = 8
	ctx := context.Background()
	store, accessor := setupTestEnvironment(t, "book-0", 1)
	for i := 1; i < books; i++ {
		_, err := accessor.RegisterStock(ctx, fmt.Sprintf("book-%d", i), "Dune", 1)
		require.NoError(t, err)
	}
	handler := issueloan.NewCommandHandler(store)

	var mu sync.Mutex
	var succeeded int
	var failures []error

	// act
	var group errgroup.Group
	for i := range books {
		bookID := fmt.Sprintf("book-%d", i)
		group.Go(func() error {
			_, _, err := handler.Handle(ctx, borrowCommand(issueloan.NewLoanID(), "user-1", bookID))

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				succeeded++
			} else {
				failures = append(failures, err)
			}

			return nil
		})
	}
	require.NoError(t, group.Wait())

	// assert
	storableEvents, _, err := store.Query(ctx, eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.LoanIssuedEventType, core.LoanReturnedEventType).
		AndAnyPredicateOf(eventstore.P("UserID", "user-1")).
		Finalize())
	require.NoError(t, err)
	history, err := shell.DomainEventsFrom(storableEvents)
	require.NoError(t, err)
	active := 0
	for _, loan := range core.ProjectLoans(history) {
		if loan.IsActive() {
			active++
		}
	}

	assert.LessOrEqual(t, active, 2)
	assert.Equal(t, succeeded, active)
	assert.Len(t, failures, books-succeeded)
	for _, err := range failures {
		assert.True(
			t,
			errors.Is(err, core.ErrPolicyViolation) || errors.Is(err, eventstore.ErrConcurrencyConflict),
			"unexpected error: %v", err,
		)
	}
}
