package returnloan

import (
	"context"

	"github.com/shelfwise/circulation/circulation/fines"
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/circulation/shared/shell"
	"github.com/shelfwise/circulation/eventstore"
)

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

// CommandHandler orchestrates the command processing workflow: Lookup -> Query -> Unmarshal -> Decide -> Append.
type CommandHandler struct {
	eventStore   EventStore
	calculator   fines.Calculator
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler that computes fines with calculator.
func NewCommandHandler(eventStore EventStore, calculator fines.Calculator, opts ...Option) CommandHandler {
	handler := CommandHandler{
		eventStore: eventStore,
		calculator: calculator,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the command with retry logic.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	var result Result

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		res, execErr := h.executeCommand(retryCtx, command)
		result = res

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return Result{}, shell.NewErrorResult(retryMetrics), err
	}

	return result, shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (Result, error) {
	ctx = eventstore.WithStrongConsistency(ctx)

	bookID, err := h.lookupBookID(ctx, command.LoanID)
	if err != nil {
		return Result{}, err
	}

	filter := BuildEventFilter(command.LoanID, bookID)

	storableEvents, maxSequenceNumber, err := h.eventStore.Query(ctx, filter)
	if err != nil {
		return Result{}, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return Result{}, err
	}

	decision, result := Decide(history, command, h.calculator)
	if err = decision.HasError(); err != nil {
		return Result{}, err
	}

	storableEventsToAppend, err := shell.StorableEventsFrom(decision.Events, shell.EventMetadataForCommand(ctx, command.CommandID))
	if err != nil {
		return Result{}, err
	}

	if err = h.eventStore.Append(ctx, filter, maxSequenceNumber, storableEventsToAppend...); err != nil {
		return Result{}, err
	}

	return result, nil
}

// lookupBookID finds the book of the loan. The book of a loan never changes, so the lookup is not
// part of the consistency boundary.
func (h CommandHandler) lookupBookID(ctx context.Context, loanID core.LoanIDString) (core.BookIDString, error) {
	storableEvents, _, err := h.eventStore.Query(ctx, BuildLoanLookupFilter(loanID))
	if err != nil {
		return "", err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return "", err
	}

	loan, found := core.ProjectLoan(history, loanID)
	if !found {
		return "", core.NewError(core.KindNotFound, "loan %s does not exist", loanID).ForLoan(loanID, "", "")
	}

	return loan.BookID, nil
}
