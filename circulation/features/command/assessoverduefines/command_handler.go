package assessoverduefines

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shelfwise/circulation/circulation/fines"
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/circulation/shared/shell"
	"github.com/shelfwise/circulation/eventstore"
)

// DefaultParallelism is the number of loans assessed at the same time.
const DefaultParallelism = 4

// ErrInvalidParallelism is returned by NewCommandHandler for a parallelism below 1.
var ErrInvalidParallelism = errors.New("parallelism must be at least 1")

// EventStore defines the interface needed by the CommandHandler for event store operations.
type EventStore interface {
	Query(ctx context.Context, filter eventstore.Filter) (
		eventstore.StorableEvents,
		eventstore.MaxSequenceNumberUint,
		error,
	)
	Append(
		ctx context.Context,
		filter eventstore.Filter,
		expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
		storableEvents ...eventstore.StorableEvent,
	) error
}

// CommandHandler runs one sweep: Snapshot -> (per loan: Query -> Decide -> Append).
type CommandHandler struct {
	eventStore   EventStore
	calculator   fines.Calculator
	parallelism  int
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler) error

// WithRetryOptions sets a custom retry configuration for the per-loan assessments.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) error {
		h.retryOptions = opts

		return nil
	}
}

// WithParallelism sets how many loans are assessed at the same time.
func WithParallelism(parallelism int) Option {
	return func(h *CommandHandler) error {
		if parallelism < 1 {
			return ErrInvalidParallelism
		}

		h.parallelism = parallelism

		return nil
	}
}

// NewCommandHandler creates a new CommandHandler that computes fines with calculator.
func NewCommandHandler(eventStore EventStore, calculator fines.Calculator, opts ...Option) (CommandHandler, error) {
	handler := CommandHandler{
		eventStore:  eventStore,
		calculator:  calculator,
		parallelism: DefaultParallelism,
	}

	for _, opt := range opts {
		if err := opt(&handler); err != nil {
			return CommandHandler{}, err
		}
	}

	return handler, nil
}

// Handle runs the sweep. Failing loans are counted and listed in the Result; the sweep only fails as a
// whole if the snapshot cannot be read or ctx is done.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	storableEvents, _, err := h.eventStore.Query(eventstore.WithStrongConsistency(ctx), BuildSnapshotFilter())
	if err != nil {
		return Result{}, shell.NewErrorResult(shell.RetryMetrics{}), err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return Result{}, shell.NewErrorResult(shell.RetryMetrics{}), err
	}

	overdue := Overdue(core.ProjectLoans(history), command.AsOf)
	result := Result{
		Examined:      len(overdue),
		FailedLoanIDs: make([]core.LoanIDString, 0),
	}

	var mu sync.Mutex
	var totals shell.RetryMetrics

	group := new(errgroup.Group)
	group.SetLimit(h.parallelism)

	for _, loan := range overdue {
		if loan.PaymentStatus || h.calculator.ComputeFine(loan.IssueDate, loan.DueDate, command.AsOf) <= loan.FineAmount {
			continue
		}

		group.Go(func() error {
			assessed, retryMetrics, assessErr := h.assess(ctx, loan.LoanID, command)

			mu.Lock()
			defer mu.Unlock()

			totals.Attempts += retryMetrics.Attempts
			totals.TotalDelay += retryMetrics.TotalDelay
			totals.RetriesExhausted = totals.RetriesExhausted || retryMetrics.RetriesExhausted

			switch {
			case assessErr != nil && ctx.Err() != nil:
				return ctx.Err()
			case assessErr != nil:
				result.Failed++
				result.FailedLoanIDs = append(result.FailedLoanIDs, loan.LoanID)
				totals.LastErrorType = retryMetrics.LastErrorType
			case assessed:
				result.Assessed++
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return result, shell.NewErrorResult(totals), err
	}

	if ctx.Err() != nil {
		return result, shell.NewErrorResult(totals), ctx.Err()
	}

	if result.Assessed == 0 {
		return result, shell.NewIdempotentResult(totals), nil
	}

	return result, shell.NewSuccessResult(totals), nil
}

// assess raises the fine of one loan, with retry.
func (h CommandHandler) assess(ctx context.Context, loanID core.LoanIDString, command Command) (bool, shell.RetryMetrics, error) {
	var assessed bool

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		appended, execErr := h.executeForLoan(retryCtx, loanID, command)
		assessed = appended

		return execErr
	}, h.retryOptions...)

	return assessed, retryMetrics, err
}

func (h CommandHandler) executeForLoan(ctx context.Context, loanID core.LoanIDString, command Command) (bool, error) {
	filter := BuildEventFilter(loanID)

	ctx = eventstore.WithStrongConsistency(ctx)

	storableEvents, maxSequenceNumber, err := h.eventStore.Query(ctx, filter)
	if err != nil {
		return false, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return false, err
	}

	decision := Decide(history, loanID, command, h.calculator)
	if err = decision.HasError(); err != nil {
		return false, err
	}

	if !decision.HasEventsToAppend() {
		return false, nil
	}

	storableEventsToAppend, err := shell.StorableEventsFrom(decision.Events, shell.EventMetadataForCommand(ctx, command.CommandID))
	if err != nil {
		return false, err
	}

	if err = h.eventStore.Append(ctx, filter, maxSequenceNumber, storableEventsToAppend...); err != nil {
		return false, err
	}

	return true, nil
}
