package assessoverduefines_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation/circulation/catalog"
	"github.com/shelfwise/circulation/circulation/features/command/assessoverduefines"
	"github.com/shelfwise/circulation/circulation/features/command/issueloan"
	"github.com/shelfwise/circulation/circulation/features/command/payfine"
	"github.com/shelfwise/circulation/circulation/features/command/returnloan"
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/circulation/shared/shell"
	"github.com/shelfwise/circulation/eventstore"
	"github.com/shelfwise/circulation/eventstore/memengine"
)

type testEnvironment struct {
	store   *memengine.EventStore
	handler assessoverduefines.CommandHandler
	loanIDs []string
}

// setupTestEnvironment lends two copies to user-1 and user-2 at fakeClock, due seven days later.
func setupTestEnvironment(t *testing.T) testEnvironment {
	t.Helper()

	ctx := context.Background()
	store, err := memengine.NewEventStore()
	require.NoError(t, err)

	_, err = catalog.NewAccessor(store).RegisterStock(ctx, "book-1", "Dune", 3)
	require.NoError(t, err)

	issueHandler := issueloan.NewCommandHandler(store)
	loanIDs := make([]string, 0, 2)
	for _, userID := range []string{"user-1", "user-2"} {
		result, _, issueErr := issueHandler.Handle(ctx, issueloan.BuildCommand(
			issueloan.NewLoanID(), userID, "book-1", issueloan.Self(userID),
			time.Time{}, time.Time{}, fakeClock,
		))
		require.NoError(t, issueErr)
		loanIDs = append(loanIDs, result.LoanID)
	}

	handler, err := assessoverduefines.NewCommandHandler(store, newCalculator(t), assessoverduefines.WithParallelism(2))
	require.NoError(t, err)

	return testEnvironment{store: store, handler: handler, loanIDs: loanIDs}
}

func (env testEnvironment) loan(t *testing.T, loanID string) core.Loan {
	t.Helper()

	storableEvents, _, err := env.store.Query(context.Background(), assessoverduefines.BuildEventFilter(loanID))
	require.NoError(t, err)
	history, err := shell.DomainEventsFrom(storableEvents)
	require.NoError(t, err)
	loan, found := core.ProjectLoan(history, loanID)
	require.True(t, found)

	return loan
}

func Test_CommandHandler_Handle_AssessesOverdueLoans(t *testing.T) {
	// arrange
	env := setupTestEnvironment(t)
	asOf := fakeClock.AddDate(0, 0, 10)

	// act
	result, handlerResult, err := env.handler.Handle(context.Background(), assessoverduefines.BuildCommand(asOf, asOf))

	// assert
	require.NoError(t, err)
	assert.False(t, handlerResult.Idempotent)
	assert.Equal(t, 2, result.Examined)
	assert.Equal(t, 2, result.Assessed)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.FailedLoanIDs)
	for _, loanID := range env.loanIDs {
		assert.Equal(t, core.Money(30), env.loan(t, loanID).FineAmount)
	}
}

func Test_CommandHandler_Handle_SecondSweepIsIdempotent(t *testing.T) {
	// arrange
	ctx := context.Background()
	env := setupTestEnvironment(t)
	asOf := fakeClock.AddDate(0, 0, 10)
	_, _, err := env.handler.Handle(ctx, assessoverduefines.BuildCommand(asOf, asOf))
	require.NoError(t, err)
	eventsBefore := env.store.EventCount()

	// act
	result, handlerResult, err := env.handler.Handle(ctx, assessoverduefines.BuildCommand(asOf, asOf.Add(time.Hour)))

	// assert
	require.NoError(t, err)
	assert.True(t, handlerResult.Idempotent)
	assert.Equal(t, 2, result.Examined)
	assert.Equal(t, 0, result.Assessed)
	assert.Equal(t, eventsBefore, env.store.EventCount())
}

func Test_CommandHandler_Handle_FineOnlyRises(t *testing.T) {
	// arrange
	ctx := context.Background()
	env := setupTestEnvironment(t)
	later := fakeClock.AddDate(0, 0, 12)
	earlier := fakeClock.AddDate(0, 0, 10)
	_, _, err := env.handler.Handle(ctx, assessoverduefines.BuildCommand(later, later))
	require.NoError(t, err)

	// act
	result, _, err := env.handler.Handle(ctx, assessoverduefines.BuildCommand(earlier, later))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 0, result.Assessed)
	assert.Equal(t, core.Money(50), env.loan(t, env.loanIDs[0]).FineAmount)
}

func Test_CommandHandler_Handle_SkipsReturnedAndPaidLoans(t *testing.T) {
	// arrange
	ctx := context.Background()
	env := setupTestEnvironment(t)
	user1 := core.Actor{UserID: "user-1", Role: core.RoleUser}
	user2 := core.Actor{UserID: "user-2", Role: core.RoleUser}
	tenDaysLater := fakeClock.AddDate(0, 0, 10)

	_, _, err := env.handler.Handle(ctx, assessoverduefines.BuildCommand(tenDaysLater, tenDaysLater))
	require.NoError(t, err)
	_, _, err = payfine.NewCommandHandler(env.store).Handle(ctx, payfine.BuildCommand(env.loanIDs[0], user1, 30, tenDaysLater))
	require.NoError(t, err)
	_, _, err = returnloan.NewCommandHandler(env.store, newCalculator(t)).
		Handle(ctx, returnloan.BuildCommand(env.loanIDs[1], user2, tenDaysLater, tenDaysLater))
	require.NoError(t, err)
	twentyDaysLater := fakeClock.AddDate(0, 0, 20)

	// act
	result, _, err := env.handler.Handle(ctx, assessoverduefines.BuildCommand(twentyDaysLater, twentyDaysLater))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Examined)
	assert.Equal(t, 0, result.Assessed)
	assert.Equal(t, core.Money(30), env.loan(t, env.loanIDs[0]).FineAmount)
	assert.Equal(t, core.Money(30), env.loan(t, env.loanIDs[1]).FineAmount)
}

// cancelingEventStore cancels the sweep right after the snapshot was read.
type cancelingEventStore struct {
	*memengine.EventStore
	cancel context.CancelFunc
	once   sync.Once
}

func (s *cancelingEventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	events, maxSequenceNumber, err := s.EventStore.Query(ctx, filter)
	s.once.Do(s.cancel)

	return events, maxSequenceNumber, err
}

func Test_CommandHandler_Handle_CanceledSweepFails(t *testing.T) {
	// arrange
	env := setupTestEnvironment(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &cancelingEventStore{EventStore: env.store, cancel: cancel}
	handler, err := assessoverduefines.NewCommandHandler(store, newCalculator(t))
	require.NoError(t, err)
	asOf := fakeClock.AddDate(0, 0, 10)

	// act
	result, _, err := handler.Handle(ctx, assessoverduefines.BuildCommand(asOf, asOf))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, result.Examined)
	assert.Equal(t, 0, result.Assessed)
	assert.Equal(t, core.Money(0), env.loan(t, env.loanIDs[0]).FineAmount)
	assert.Equal(t, core.Money(0), env.loan(t, env.loanIDs[1]).FineAmount)
}

func Test_NewCommandHandler_RejectsInvalidParallelism(t *testing.T) {
	// arrange
	store, err := memengine.NewEventStore()
	require.NoError(t, err)

	// act
	_, err = assessoverduefines.NewCommandHandler(store, newCalculator(t), assessoverduefines.WithParallelism(0))

	// assert
	assert.ErrorIs(t, err, assessoverduefines.ErrInvalidParallelism)
}

type sweepHandlerStub struct {
	calls atomic.Int32
	done  chan struct{}
}

func (s *sweepHandlerStub) Handle(_ context.Context, _ assessoverduefines.Command) (
	assessoverduefines.Result,
	shell.HandlerResult,
	error,
) {

	if s.calls.Add(1) == 2 {
		close(s.done)
	}

	return assessoverduefines.Result{}, shell.HandlerResult{}, nil
}

func Test_Runner_RunsSweepPeriodicallyUntilCanceled(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	stub := &sweepHandlerStub{done: make(chan struct{})}
	runner := assessoverduefines.NewRunner(stub, 5*time.Millisecond, nil)
	stopped := make(chan struct{})

	// act
	go func() {
		runner.Run(ctx)
		close(stopped)
	}()

	select {
	case <-stub.done:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep was not run twice")
	}
	cancel()

	// assert
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.GreaterOrEqual(t, stub.calls.Load(), int32(2))
}

func Test_Runner_DisabledWithoutInterval(t *testing.T) {
	// arrange
	stub := &sweepHandlerStub{done: make(chan struct{})}
	runner := assessoverduefines.NewRunner(stub, 0, nil)

	// act
	runner.Run(context.Background())

	// assert
	assert.Equal(t, int32(0), stub.calls.Load())
}
