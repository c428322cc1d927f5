package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/circulation/shared/shell"
	"github.com/shelfwise/circulation/eventstore"
)

// Accessor is the catalog boundary: availability lookups and stock registration.
type Accessor struct {
	eventStore   shell.EventStore
	retryOptions []shell.RetryOption
	now          func() time.Time
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithRetryOptions sets a custom retry configuration for stock registration.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(a *Accessor) {
		a.retryOptions = opts
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Accessor) {
		a.now = now
	}
}

// NewAccessor creates an Accessor on top of the event store.
func NewAccessor(eventStore shell.EventStore, opts ...Option) Accessor {
	accessor := Accessor{
		eventStore: eventStore,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(&accessor)
	}

	return accessor
}

// GetAvailability returns the copy counts of bookID, or a NotFound error if no stock is registered.
func (a Accessor) GetAvailability(ctx context.Context, bookID core.BookIDString) (Availability, error) {
	storableEvents, _, err := a.eventStore.Query(ctx, BuildStockFilter(bookID))
	if err != nil {
		return Availability{}, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return Availability{}, err
	}

	stock := ProjectStock(history, bookID)
	if !stock.Registered {
		return Availability{}, core.NewError(core.KindNotFound, "book %s has no registered stock", bookID).ForBook(bookID)
	}

	return stock.Availability(), nil
}

// RegisterStock sets the number of copies of bookID. Copies on loan stay on loan, so totalCopies
// below the number of copies on loan fails with WouldGoNegative. Registering the same stock again is a no-op.
func (a Accessor) RegisterStock(
	ctx context.Context,
	bookID core.BookIDString,
	title string,
	totalCopies int,
) (Availability, error) {

	if strings.TrimSpace(bookID) == "" || totalCopies < 0 {
		return Availability{}, core.NewError(core.KindInvalidRequest, "book id is required and total copies must not be negative").
			ForBook(bookID)
	}

	var availability Availability
	commandID := uuid.New()
	occurredAt := a.now()

	_, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		filter := BuildStockFilter(bookID)
		retryCtx = eventstore.WithStrongConsistency(retryCtx)

		storableEvents, maxSequenceNumber, err := a.eventStore.Query(retryCtx, filter)
		if err != nil {
			return err
		}

		history, err := shell.DomainEventsFrom(storableEvents)
		if err != nil {
			return err
		}

		stock := ProjectStock(history, bookID)
		result, registered := DecideRegisterStock(stock, title, totalCopies, occurredAt)
		if err = result.HasError(); err != nil {
			return err
		}

		availability = registered.Availability()
		if !result.HasEventsToAppend() {
			return nil
		}

		storableEventsToAppend, err := shell.StorableEventsFrom(result.Events, shell.EventMetadataForCommand(retryCtx, commandID))
		if err != nil {
			return err
		}

		return a.eventStore.Append(retryCtx, filter, maxSequenceNumber, storableEventsToAppend...)
	}, a.retryOptions...)

	if err != nil {
		return Availability{}, err
	}

	return availability, nil
}

// DecideRegisterStock returns the decision and the stock after it.
func DecideRegisterStock(stock Stock, title string, totalCopies int, occurredAt time.Time) (core.DecisionResult, Stock) {
	if stock.Registered && stock.TotalCopies == totalCopies && stock.Title == title {
		return core.IdempotentDecision(), stock
	}

	onLoan := stock.CopiesOnLoan()
	if totalCopies < onLoan {
		err := core.NewError(
			core.KindWouldGoNegative,
			"book %s has %d copies on loan, total copies cannot be %d",
			stock.BookID, onLoan, totalCopies,
		).ForBook(stock.BookID)

		return core.ErrorDecision(err), stock
	}

	event := core.BuildBookStockRegistered(stock.BookID, title, totalCopies, totalCopies-onLoan, occurredAt)
	registered := ProjectStock(core.DomainEvents{event}, stock.BookID)

	return core.SuccessDecision(event), registered
}
