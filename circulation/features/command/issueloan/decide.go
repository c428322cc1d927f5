package issueloan

import (
	"github.com/shelfwise/circulation/circulation/catalog"
	"github.com/shelfwise/circulation/circulation/policy"
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/eventstore"
)

// Result is returned to the caller of a successful (or idempotent) issue.
type Result struct {
	LoanID          core.LoanIDString
	AvailableCopies int
}

// Decide implements the business logic of issuing a loan.
//
// Business Rules:
//
//	GIVEN: registered stock of BookID and the loans of UserID
//	WHEN: IssueLoan command is received
//	THEN: LoanIssued and AvailabilityAdjusted(-1) are generated
//	ERROR: InvalidRequest if the due date is not after the issue date, or the LoanID belongs to another loan
//	ERROR: InvalidRequest if a self-service borrow sets its own issue or due date
//	ERROR: NotFound if the book has no registered stock
//	ERROR: PolicyViolation if the user already has the maximum number of active loans
//	ERROR: OutOfStock if no copy is available
//	IDEMPOTENCY: If the loan with LoanID was already issued, no event is generated (no-op)
func Decide(history core.DomainEvents, command Command, borrowingPolicy policy.BorrowingPolicy) (core.DecisionResult, Result) {
	loanID := command.LoanID.String()
	loans := core.ProjectLoans(history)
	stock := catalog.ProjectStock(history, command.BookID)

	for _, loan := range loans {
		if loan.LoanID != loanID {
			continue
		}

		if loan.UserID != command.UserID || loan.BookID != command.BookID {
			return core.ErrorDecision(
				core.NewError(core.KindInvalidRequest, "loan id %s is already used by another loan", loanID).
					ForLoan(loanID, command.UserID, command.BookID),
			), Result{}
		}

		return core.IdempotentDecision(), Result{LoanID: loanID, AvailableCopies: stock.AvailableCopies}
	}

	if command.Issuer.Kind == core.IssuerKindSelf && !hasStandardDates(command) {
		return core.ErrorDecision(
			core.NewError(core.KindInvalidRequest, "only admins may set issue or due dates").
				ForLoan(loanID, command.UserID, command.BookID),
		), Result{}
	}

	if !command.DueDate.After(command.IssueDate) {
		return core.ErrorDecision(
			core.NewError(core.KindInvalidRequest, "due date must be after issue date").
				ForLoan(loanID, command.UserID, command.BookID),
		), Result{}
	}

	if !stock.Registered {
		return core.ErrorDecision(
			core.NewError(core.KindNotFound, "book %s has no registered stock", command.BookID).
				ForLoan("", command.UserID, command.BookID),
		), Result{}
	}

	if decision := borrowingPolicy.CanBorrow(loans, command.UserID); !decision.Allowed {
		return core.ErrorDecision(
			core.NewError(
				core.KindPolicyViolation,
				"user %s already has %d active loans, the maximum is %d",
				command.UserID, decision.ActiveCount, borrowingPolicy.MaxActiveLoans(),
			).ForLoan("", command.UserID, command.BookID),
		), Result{}
	}

	if !borrowingPolicy.CanIssue(stock) {
		return core.ErrorDecision(
			core.NewError(core.KindOutOfStock, "no copies of book %s are available", command.BookID).
				ForLoan("", command.UserID, command.BookID),
		), Result{}
	}

	adjusted, err := catalog.Adjust(stock, loanID, -1, command.OccurredAt)
	if err != nil {
		return core.ErrorDecision(err), Result{}
	}

	issued := core.BuildLoanIssued(
		loanID,
		command.UserID,
		command.BookID,
		command.Issuer.ID,
		command.Issuer.Kind,
		command.IssueDate,
		command.DueDate,
		command.OccurredAt,
	)

	return core.SuccessDecision(issued, adjusted), Result{LoanID: loanID, AvailableCopies: adjusted.AvailableCopies}
}

// hasStandardDates reports whether the loan starts when the command occurs and runs for DefaultBorrowingPeriod.
func hasStandardDates(command Command) bool {
	return command.IssueDate.Equal(command.OccurredAt) &&
		command.DueDate.Equal(command.IssueDate.Add(DefaultBorrowingPeriod))
}

// BuildEventFilter creates the filter for the stock events of the book, and the issue and return
// events of the user and of the loan itself.
func BuildEventFilter(command Command) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BookStockRegisteredEventType,
			core.AvailabilityAdjustedEventType,
		).
		AndAnyPredicateOf(eventstore.P("BookID", command.BookID)).
		OrMatching().
		AnyEventTypeOf(
			core.LoanIssuedEventType,
			core.LoanReturnedEventType,
		).
		AndAnyPredicateOf(
			eventstore.P("UserID", command.UserID),
			eventstore.P("LoanID", command.LoanID.String()),
		).
		Finalize()
}
