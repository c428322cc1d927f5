package issueloan

import (
	"context"

	"github.com/shelfwise/circulation/circulation/policy"
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

// CommandHandler orchestrates the command processing workflow: Query -> Unmarshal -> Decide -> Append.
// Observability is added by the wrappers of the observable package.
type CommandHandler struct {
	eventStore      EventStore
	borrowingPolicy policy.BorrowingPolicy
	retryOptions    []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithBorrowingPolicy replaces the default borrowing policy.
func WithBorrowingPolicy(borrowingPolicy policy.BorrowingPolicy) Option {
	return func(h *CommandHandler) {
		h.borrowingPolicy = borrowingPolicy
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(eventStore EventStore, opts ...Option) CommandHandler {
	handler := CommandHandler{
		eventStore:      eventStore,
		borrowingPolicy: policy.NewBorrowingPolicy(),
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the command with retry: a concurrency conflict re-runs Query and Decide on the fresh history.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	var isIdempotent bool
	var result Result

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		res, idempotent, execErr := h.executeCommand(retryCtx, command)
		result, isIdempotent = res, idempotent

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return Result{}, shell.NewErrorResult(retryMetrics), err
	}

	if isIdempotent {
		return result, shell.NewIdempotentResult(retryMetrics), nil
	}

	return result, shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (Result, bool, error) {
	filter := BuildEventFilter(command)

	ctx = eventstore.WithStrongConsistency(ctx)

	storableEvents, maxSequenceNumber, err := h.eventStore.Query(ctx, filter)
	if err != nil {
		return Result{}, false, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return Result{}, false, err
	}

	decision, result := Decide(history, command, h.borrowingPolicy)
	if err = decision.HasError(); err != nil {
		return Result{}, false, err
	}

	if !decision.HasEventsToAppend() {
		return result, true, nil
	}

	storableEventsToAppend, err := shell.StorableEventsFrom(decision.Events, shell.EventMetadataForCommand(ctx, command.CommandID))
	if err != nil {
		return Result{}, false, err
	}

	if err = h.eventStore.Append(ctx, filter, maxSequenceNumber, storableEventsToAppend...); err != nil {
		return Result{}, false, err
	}

	return result, false, nil
}
