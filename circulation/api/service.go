package api

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation/circulation/catalog"
	"github.com/shelfwise/circulation/circulation/features/command/assessoverduefines"
	"github.com/shelfwise/circulation/circulation/features/command/issueloan"
	"github.com/shelfwise/circulation/circulation/features/command/payfine"
	"github.com/shelfwise/circulation/circulation/features/command/returnloan"
	"github.com/shelfwise/circulation/circulation/features/query/activeloancount"
	"github.com/shelfwise/circulation/circulation/features/query/listloans"
	"github.com/shelfwise/circulation/circulation/features/query/outstandingfines"
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/circulation/shared/shell"
)

// Catalog is the catalog boundary the service exposes.
type Catalog interface {
	GetAvailability(ctx context.Context, bookID core.BookIDString) (catalog.Availability, error)
	RegisterStock(ctx context.Context, bookID core.BookIDString, title string, totalCopies int) (catalog.Availability, error)
}

// Handlers are the ledger handlers behind the service, usually wrapped by the observable package.
type Handlers struct {
	IssueLoan          shell.CommandHandler[issueloan.Command, issueloan.Result]
	ReturnLoan         shell.CommandHandler[returnloan.Command, returnloan.Result]
	PayFine            shell.CommandHandler[payfine.Command, payfine.Result]
	AssessOverdueFines shell.CommandHandler[assessoverduefines.Command, assessoverduefines.Result]
	ListLoans          shell.QueryHandler[listloans.Query, listloans.LoanList]
	ActiveLoanCount    shell.QueryHandler[activeloancount.Query, activeloancount.ActiveLoanCount]
	OutstandingFines   shell.QueryHandler[outstandingfines.Query, outstandingfines.OutstandingFines]
}

// Service is the Circulation API.
type Service struct {
	handlers Handlers
	catalog  Catalog
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service.
func NewService(handlers Handlers, catalogAccessor Catalog, opts ...Option) *Service {
	service := &Service{
		handlers: handlers,
		catalog:  catalogAccessor,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// AdminIssue issues a loan to req.UserID on behalf of the admin req.AdminID, who must be the actor.
func (s *Service) AdminIssue(ctx context.Context, actor core.Actor, req IssueRequest) (issueloan.Result, error) {
	if err := authenticated(actor); err != nil {
		return issueloan.Result{}, err
	}

	if !actor.IsAdmin() {
		return issueloan.Result{}, core.NewError(core.KindForbidden, "admin role required").ForUser(actor.UserID)
	}

	if strings.TrimSpace(req.AdminID) == "" {
		return issueloan.Result{}, core.NewError(core.KindInvalidRequest, "adminId is required")
	}

	if req.AdminID != actor.UserID {
		return issueloan.Result{}, core.NewError(core.KindForbidden, "adminId must be the caller").ForUser(req.AdminID)
	}

	return s.issue(ctx, req, issueloan.Admin(actor.UserID))
}

// Borrow issues a loan to the actor. Admins may borrow on behalf of another user, which is recorded
// as an admin issue.
func (s *Service) Borrow(ctx context.Context, actor core.Actor, req IssueRequest) (issueloan.Result, error) {
	if err := authenticated(actor); err != nil {
		return issueloan.Result{}, err
	}

	if req.UserID == "" {
		req.UserID = actor.UserID
	}

	if !actor.MayActFor(req.UserID) {
		return issueloan.Result{}, core.NewError(core.KindForbidden, "user %s may not borrow for %s", actor.UserID, req.UserID).
			ForUser(req.UserID)
	}

	issuer := issueloan.Self(req.UserID)
	if req.UserID != actor.UserID {
		issuer = issueloan.Admin(actor.UserID)
	}

	return s.issue(ctx, req, issuer)
}

func (s *Service) issue(ctx context.Context, req IssueRequest, issuer issueloan.Issuer) (issueloan.Result, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.BookID) == "" {
		return issueloan.Result{}, core.NewError(core.KindInvalidRequest, "userId and bookId are required").
			ForLoan("", req.UserID, req.BookID)
	}

	loanID := issueloan.NewLoanID()
	if req.LoanID != "" {
		parsed, err := uuid.Parse(req.LoanID)
		if err != nil {
			return issueloan.Result{}, core.NewError(core.KindInvalidRequest, "loanId must be a UUID").ForLoan(req.LoanID, "", "")
		}

		loanID = parsed
	}

	command := issueloan.BuildCommand(loanID, req.UserID, req.BookID, issuer, req.IssueDate, req.DueDate, s.now())
	result, _, err := s.handlers.IssueLoan.Handle(ctx, command)

	return result, err
}

// Return returns a loan of the actor, or of anyone if the actor is an admin.
func (s *Service) Return(ctx context.Context, actor core.Actor, req ReturnRequest) (returnloan.Result, error) {
	if err := authenticated(actor); err != nil {
		return returnloan.Result{}, err
	}

	if strings.TrimSpace(req.LoanID) == "" {
		return returnloan.Result{}, core.NewError(core.KindInvalidRequest, "loanId is required")
	}

	now := s.now()
	command := returnloan.BuildCommand(req.LoanID, actor, now, now).WithOwner(req.UserID)
	result, _, err := s.handlers.ReturnLoan.Handle(ctx, command)

	return result, err
}

// PayFine records a payment towards the fine of a loan of the actor, or of anyone if the actor is an admin.
func (s *Service) PayFine(ctx context.Context, actor core.Actor, req PayFineRequest) (payfine.Result, error) {
	if err := authenticated(actor); err != nil {
		return payfine.Result{}, err
	}

	if strings.TrimSpace(req.LoanID) == "" {
		return payfine.Result{}, core.NewError(core.KindInvalidRequest, "loanId is required")
	}

	result, _, err := s.handlers.PayFine.Handle(ctx, payfine.BuildCommand(req.LoanID, actor, req.Amount, s.now()))

	return result, err
}

// ListLoans lists the loans matching filter. Non-admins only see their own loans.
func (s *Service) ListLoans(ctx context.Context, actor core.Actor, filter listloans.Filter) (core.Loans, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		if filter.UserID == "" {
			filter.UserID = actor.UserID
		}

		if filter.UserID != actor.UserID {
			return nil, core.NewError(core.KindForbidden, "user %s may not list loans of %s", actor.UserID, filter.UserID).
				ForUser(filter.UserID)
		}
	}

	result, err := s.handlers.ListLoans.Handle(ctx, listloans.BuildQuery(filter, s.now()))
	if err != nil {
		return nil, err
	}

	return result.Loans, nil
}

// ActiveCount returns the number of active loans of userID and whether they may borrow another book.
func (s *Service) ActiveCount(ctx context.Context, actor core.Actor, userID core.UserIDString) (activeloancount.ActiveLoanCount, error) {
	if err := s.authorizeFor(actor, userID); err != nil {
		return activeloancount.ActiveLoanCount{}, err
	}

	return s.handlers.ActiveLoanCount.Handle(ctx, activeloancount.BuildQuery(userID))
}

// OutstandingTotal returns the sum of the unpaid fines of userID.
func (s *Service) OutstandingTotal(ctx context.Context, actor core.Actor, userID core.UserIDString) (outstandingfines.OutstandingFines, error) {
	if err := s.authorizeFor(actor, userID); err != nil {
		return outstandingfines.OutstandingFines{}, err
	}

	return s.handlers.OutstandingFines.Handle(ctx, outstandingfines.BuildQuery(userID))
}

// SweepOverdueFines runs the overdue sweep as of now.
func (s *Service) SweepOverdueFines(ctx context.Context, actor core.Actor) (assessoverduefines.Result, error) {
	if err := requireAdmin(actor); err != nil {
		return assessoverduefines.Result{}, err
	}

	now := s.now()
	result, _, err := s.handlers.AssessOverdueFines.Handle(ctx, assessoverduefines.BuildCommand(now, now))

	return result, err
}

// GetAvailability returns the copy counts of a book.
func (s *Service) GetAvailability(ctx context.Context, actor core.Actor, bookID core.BookIDString) (catalog.Availability, error) {
	if err := authenticated(actor); err != nil {
		return catalog.Availability{}, err
	}

	return s.catalog.GetAvailability(ctx, bookID)
}

// RegisterStock sets the number of copies of a book.
func (s *Service) RegisterStock(ctx context.Context, actor core.Actor, req RegisterStockRequest) (catalog.Availability, error) {
	if err := requireAdmin(actor); err != nil {
		return catalog.Availability{}, err
	}

	return s.catalog.RegisterStock(ctx, req.BookID, req.Title, req.TotalCopies)
}

func (s *Service) authorizeFor(actor core.Actor, userID core.UserIDString) error {
	if err := authenticated(actor); err != nil {
		return err
	}

	if strings.TrimSpace(userID) == "" {
		return core.NewError(core.KindInvalidRequest, "userId is required")
	}

	if !actor.MayActFor(userID) {
		return core.NewError(core.KindForbidden, "user %s may not access data of %s", actor.UserID, userID).ForUser(userID)
	}

	return nil
}

func authenticated(actor core.Actor) error {
	if actor.UserID == "" {
		return core.ErrUnauthenticated
	}

	return nil
}

func requireAdmin(actor core.Actor) error {
	if err := authenticated(actor); err != nil {
		return err
	}

	if !actor.IsAdmin() {
		return core.NewError(core.KindForbidden, "admin role required").ForUser(actor.UserID)
	}

	return nil
}
