package api

import (
	"context"
	"time"

	"github.com/shelfwise/circulation/circulation/catalog"
	"github.com/shelfwise/circulation/circulation/features/command/assessoverduefines"
	"github.com/shelfwise/circulation/circulation/features/command/issueloan"
	"github.com/shelfwise/circulation/circulation/features/command/payfine"
	"github.com/shelfwise/circulation/circulation/features/command/returnloan"
	"github.com/shelfwise/circulation/circulation/features/query/activeloancount"
	"github.com/shelfwise/circulation/circulation/features/query/listloans"
	"github.com/shelfwise/circulation/circulation/features/query/outstandingfines"
	"github.com/shelfwise/circulation/circulation/fines"
	"github.com/shelfwise/circulation/circulation/policy"
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/circulation/shared/shell"
	"github.com/shelfwise/circulation/circulation/shared/shell/observable"
)

// Settings configure the handlers built by NewLedger. Nil collectors and loggers disable that concern.
type Settings struct {
	Calculator           fines.Calculator
	BorrowingPolicy      policy.BorrowingPolicy
	AllowPartialPayments bool
	SweepParallelism     int
	RetryOptions         []shell.RetryOption

	MetricsCollector shell.MetricsCollector
	TracingCollector shell.TracingCollector
	ContextualLogger shell.ContextualLogger
}

// Ledger bundles the observable handlers and the catalog accessor built on one event store.
type Ledger struct {
	Handlers Handlers
	Catalog  Catalog
}

// NewLedger builds every handler on eventStore and wraps it with metrics, tracing, and logging.
// A zero Calculator or BorrowingPolicy is replaced by the default one.
func NewLedger(eventStore shell.EventStore, settings Settings) (Ledger, error) {
	settings, err := settings.withDefaults()
	if err != nil {
		return Ledger{}, err
	}

	issueHandler, err := wrapCommand[issueloan.Command, issueloan.Result](
		issueloan.NewCommandHandler(
			eventStore,
			issueloan.WithBorrowingPolicy(settings.BorrowingPolicy),
			issueloan.WithRetryOptions(retryOptionsFor(settings, issueloan.Command{})...),
		),
		settings,
	)
	if err != nil {
		return Ledger{}, err
	}

	returnHandler, err := wrapCommand[returnloan.Command, returnloan.Result](
		returnloan.NewCommandHandler(
			eventStore,
			settings.Calculator,
			returnloan.WithRetryOptions(retryOptionsFor(settings, returnloan.Command{})...),
		),
		settings,
	)
	if err != nil {
		return Ledger{}, err
	}

	payHandler, err := wrapCommand[payfine.Command, payfine.Result](
		payfine.NewCommandHandler(
			eventStore,
			payfine.WithPartialPayments(settings.AllowPartialPayments),
			payfine.WithRetryOptions(retryOptionsFor(settings, payfine.Command{})...),
		),
		settings,
	)
	if err != nil {
		return Ledger{}, err
	}

	sweepOptions := []assessoverduefines.Option{
		assessoverduefines.WithRetryOptions(retryOptionsFor(settings, assessoverduefines.Command{})...),
	}
	if settings.SweepParallelism > 0 {
		sweepOptions = append(sweepOptions, assessoverduefines.WithParallelism(settings.SweepParallelism))
	}

	sweepCore, err := assessoverduefines.NewCommandHandler(eventStore, settings.Calculator, sweepOptions...)
	if err != nil {
		return Ledger{}, err
	}

	sweepHandler, err := wrapCommand[assessoverduefines.Command, assessoverduefines.Result](sweepCore, settings)
	if err != nil {
		return Ledger{}, err
	}

	listHandler, err := wrapQuery[listloans.Query, listloans.LoanList](listloans.NewQueryHandler(eventStore), settings)
	if err != nil {
		return Ledger{}, err
	}

	countHandler, err := wrapQuery[activeloancount.Query, activeloancount.ActiveLoanCount](activeloancount.NewQueryHandler(eventStore, settings.BorrowingPolicy), settings)
	if err != nil {
		return Ledger{}, err
	}

	outstandingHandler, err := wrapQuery[outstandingfines.Query, outstandingfines.OutstandingFines](outstandingfines.NewQueryHandler(eventStore), settings)
	if err != nil {
		return Ledger{}, err
	}

	catalogHandlers, err := newObservedCatalog(
		catalog.NewAccessor(eventStore, catalog.WithRetryOptions(retryOptionsFor(settings, registerStockCommand{})...)),
		settings,
	)
	if err != nil {
		return Ledger{}, err
	}

	return Ledger{
		Handlers: Handlers{
			IssueLoan:          issueHandler,
			ReturnLoan:         returnHandler,
			PayFine:            payHandler,
			AssessOverdueFines: sweepHandler,
			ListLoans:          listHandler,
			ActiveLoanCount:    countHandler,
			OutstandingFines:   outstandingHandler,
		},
		Catalog: catalogHandlers,
	}, nil
}

func (s Settings) withDefaults() (Settings, error) {
	if s.Calculator == (fines.Calculator{}) {
		calculator, err := fines.NewCalculator()
		if err != nil {
			return Settings{}, err
		}

		s.Calculator = calculator
	}

	if s.BorrowingPolicy.MaxActiveLoans() == 0 {
		s.BorrowingPolicy = policy.NewBorrowingPolicy()
	}

	return s, nil
}

func retryOptionsFor(settings Settings, command shell.Command) []shell.RetryOption {
	options := append([]shell.RetryOption(nil), settings.RetryOptions...)
	if settings.MetricsCollector != nil {
		options = append(options, shell.WithMetrics(settings.MetricsCollector, command.CommandType()))
	}

	return options
}

func wrapCommand[C shell.Command, R any](handler shell.CommandHandler[C, R], settings Settings) (*observable.CommandWrapper[C, R], error) {
	return observable.NewCommandWrapper(
		handler,
		observable.WithCommandMetrics[C, R](settings.MetricsCollector),
		observable.WithCommandTracing[C, R](settings.TracingCollector),
		observable.WithCommandContextualLogging[C, R](settings.ContextualLogger),
	)
}

func wrapQuery[Q shell.Query, R any](handler shell.QueryHandler[Q, R], settings Settings) (*observable.QueryWrapper[Q, R], error) {
	return observable.NewQueryWrapper(
		handler,
		observable.WithQueryMetrics[Q, R](settings.MetricsCollector),
		observable.WithQueryTracing[Q, R](settings.TracingCollector),
		observable.WithQueryContextualLogging[Q, R](settings.ContextualLogger),
	)
}

type registerStockCommand struct {
	bookID      core.BookIDString
	title       string
	totalCopies int
}

func (registerStockCommand) CommandType() string { return "RegisterStock" }

type getAvailabilityQuery struct {
	bookID core.BookIDString
}

func (getAvailabilityQuery) QueryType() string { return "GetAvailability" }

// observedCatalog records the catalog boundary calls like the ledger handlers.
type observedCatalog struct {
	getAvailability shell.QueryHandler[getAvailabilityQuery, catalog.Availability]
	registerStock   shell.CommandHandler[registerStockCommand, catalog.Availability]
}

func newObservedCatalog(accessor catalog.Accessor, settings Settings) (observedCatalog, error) {
	getAvailability, err := wrapQuery[getAvailabilityQuery, catalog.Availability](queryFunc[getAvailabilityQuery, catalog.Availability](
		func(ctx context.Context, query getAvailabilityQuery) (catalog.Availability, error) {
			return accessor.GetAvailability(ctx, query.bookID)
		},
	), settings)
	if err != nil {
		return observedCatalog{}, err
	}

	registerStock, err := wrapCommand[registerStockCommand, catalog.Availability](commandFunc[registerStockCommand, catalog.Availability](
		func(ctx context.Context, command registerStockCommand) (catalog.Availability, shell.HandlerResult, error) {
			availability, registerErr := accessor.RegisterStock(ctx, command.bookID, command.title, command.totalCopies)

			return availability, shell.HandlerResult{}, registerErr
		},
	), settings)
	if err != nil {
		return observedCatalog{}, err
	}

	return observedCatalog{getAvailability: getAvailability, registerStock: registerStock}, nil
}

func (c observedCatalog) GetAvailability(ctx context.Context, bookID core.BookIDString) (catalog.Availability, error) {
	return c.getAvailability.Handle(ctx, getAvailabilityQuery{bookID: bookID})
}

func (c observedCatalog) RegisterStock(
	ctx context.Context,
	bookID core.BookIDString,
	title string,
	totalCopies int,
) (catalog.Availability, error) {

	availability, _, err := c.registerStock.Handle(ctx, registerStockCommand{bookID: bookID, title: title, totalCopies: totalCopies})

	return availability, err
}

type queryFunc[Q shell.Query, R any] func(ctx context.Context, query Q) (R, error)

func (f queryFunc[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	return f(ctx, query)
}

type commandFunc[C shell.Command, R any] func(ctx context.Context, command C) (R, shell.HandlerResult, error)

func (f commandFunc[C, R]) Handle(ctx context.Context, command C) (R, shell.HandlerResult, error) {
	return f(ctx, command)
}

// NewRunner builds the periodic overdue sweep on the ledger's sweep handler.
func (l Ledger) NewRunner(interval time.Duration, logger shell.ContextualLogger) assessoverduefines.Runner {
	return assessoverduefines.NewRunner(l.Handlers.AssessOverdueFines, interval, logger)
}
