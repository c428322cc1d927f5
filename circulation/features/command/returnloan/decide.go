package returnloan

import (
	"time"

	"github.com/shelfwise/circulation/circulation/catalog"
	"github.com/shelfwise/circulation/circulation/fines"
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/eventstore"
)

// Result describes the returned loan.
type Result struct {
	LoanID          core.LoanIDString
	UserID          core.UserIDString
	BookID          core.BookIDString
	ReturnDate      time.Time
	FineAmount      core.Money
	AvailableCopies int
}

// Decide implements the business logic of returning a loan.
//
// Business Rules:
//
//	GIVEN: an active loan and the stock of its book
//	WHEN: ReturnLoan command is received
//	THEN: LoanReturned (with the fine as of the return date) and AvailabilityAdjusted(+1) are generated
//	ERROR: NotFound if the loan does not exist
//	ERROR: Forbidden if the actor is neither the borrower nor an admin
//	ERROR: InvalidRequest if an OwnerID is given and the loan belongs to someone else
//	ERROR: AlreadyReturned if the loan was returned before
//
// The fine never decreases: an assessed fine higher than the computed one is kept, and a paid fine stays frozen.
func Decide(history core.DomainEvents, command Command, calculator fines.Calculator) (core.DecisionResult, Result) {
	loan, found := core.ProjectLoan(history, command.LoanID)
	if !found {
		return core.ErrorDecision(
			core.NewError(core.KindNotFound, "loan %s does not exist", command.LoanID).
				ForLoan(command.LoanID, "", ""),
		), Result{}
	}

	if !command.Actor.MayActFor(loan.UserID) {
		return core.ErrorDecision(
			core.NewError(core.KindForbidden, "user %s may not return loan %s", command.Actor.UserID, loan.LoanID).
				ForLoan(loan.LoanID, loan.UserID, loan.BookID),
		), Result{}
	}

	if command.OwnerID != "" && command.OwnerID != loan.UserID {
		return core.ErrorDecision(
			core.NewError(core.KindInvalidRequest, "loan %s does not belong to user %s", loan.LoanID, command.OwnerID).
				ForLoan(loan.LoanID, command.OwnerID, loan.BookID),
		), Result{}
	}

	if !loan.IsActive() {
		return core.ErrorDecision(
			core.NewError(core.KindAlreadyReturned, "loan %s was already returned", loan.LoanID).
				ForLoan(loan.LoanID, loan.UserID, loan.BookID),
		), Result{}
	}

	fineAmount := loan.FineAmount
	if !loan.PaymentStatus {
		fineAmount = max(fineAmount, calculator.ComputeFine(loan.IssueDate, loan.DueDate, command.ReturnDate))
	}

	stock := catalog.ProjectStock(history, loan.BookID)

	adjusted, err := catalog.Adjust(stock, loan.LoanID, 1, command.OccurredAt)
	if err != nil {
		return core.ErrorDecision(err), Result{}
	}

	returned := core.BuildLoanReturned(
		loan.LoanID,
		loan.UserID,
		loan.BookID,
		command.ReturnDate,
		fineAmount,
		command.OccurredAt,
	)

	return core.SuccessDecision(returned, adjusted), Result{
		LoanID:          loan.LoanID,
		UserID:          loan.UserID,
		BookID:          loan.BookID,
		ReturnDate:      command.ReturnDate,
		FineAmount:      fineAmount,
		AvailableCopies: adjusted.AvailableCopies,
	}
}

// BuildLoanLookupFilter creates the filter that finds the issue of loanID, to learn its book.
func BuildLoanLookupFilter(loanID core.LoanIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.LoanIssuedEventType).
		AndAnyPredicateOf(eventstore.P("LoanID", loanID)).
		Finalize()
}

// BuildEventFilter creates the filter for all events of the loan and the stock events of its book.
func BuildEventFilter(loanID core.LoanIDString, bookID core.BookIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.LoanIssuedEventType,
			core.LoanReturnedEventType,
			core.OverdueFineAssessedEventType,
			core.FinePaidEventType,
		).
		AndAnyPredicateOf(eventstore.P("LoanID", loanID)).
		OrMatching().
		AnyEventTypeOf(
			core.BookStockRegisteredEventType,
			core.AvailabilityAdjustedEventType,
		).
		AndAnyPredicateOf(eventstore.P("BookID", bookID)).
		Finalize()
}
