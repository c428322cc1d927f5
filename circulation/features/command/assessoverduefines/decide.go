package assessoverduefines

import (
	"time"

	"github.com/shelfwise/circulation/circulation/fines"
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/eventstore"
)

// Result summarizes one sweep.
type Result struct {
	// Examined is the number of active loans that were overdue as of the sweep time.
	Examined int
	// Assessed is the number of loans whose fine was raised.
	Assessed int
	// Failed is the number of loans that could not be assessed, e.g. due to a persistent conflict.
	Failed int
	// FailedLoanIDs lists the loans counted in Failed.
	FailedLoanIDs []core.LoanIDString
}

// Overdue returns the active loans that are past their due date as of asOf.
func Overdue(loans core.Loans, asOf time.Time) core.Loans {
	overdue := make(core.Loans, 0)

	for _, loan := range loans {
		if loan.IsOverdue(asOf) {
			overdue = append(overdue, loan)
		}
	}

	return overdue
}

// Decide implements the business logic of assessing the fine of one loan.
//
// Business Rules:
//
//	GIVEN: an active, overdue loan with an unpaid fine
//	WHEN: the computed fine as of AsOf exceeds the stored fine
//	THEN: OverdueFineAssessed is generated
//	ERROR: NotFound if the loan does not exist
//	IDEMPOTENCY: If the loan was returned, its fine was paid, or the fine is current, no event is generated (no-op)
func Decide(
	history core.DomainEvents,
	loanID core.LoanIDString,
	command Command,
	calculator fines.Calculator,
) core.DecisionResult {

	loan, found := core.ProjectLoan(history, loanID)
	if !found {
		return core.ErrorDecision(
			core.NewError(core.KindNotFound, "loan %s does not exist", loanID).ForLoan(loanID, "", ""),
		)
	}

	if !loan.IsActive() || loan.PaymentStatus {
		return core.IdempotentDecision()
	}

	fineAmount := calculator.ComputeFine(loan.IssueDate, loan.DueDate, command.AsOf)
	if fineAmount <= loan.FineAmount {
		return core.IdempotentDecision()
	}

	return core.SuccessDecision(core.BuildOverdueFineAssessed(
		loan.LoanID,
		loan.UserID,
		loan.BookID,
		fineAmount,
		command.AsOf,
		command.OccurredAt,
	))
}

// BuildSnapshotFilter creates the filter for the loan events of all loans.
func BuildSnapshotFilter() eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.LoanIssuedEventType,
			core.LoanReturnedEventType,
			core.OverdueFineAssessedEventType,
			core.FinePaidEventType,
		).
		Finalize()
}

// BuildEventFilter creates the filter for all events of one loan.
func BuildEventFilter(loanID core.LoanIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.LoanIssuedEventType,
			core.LoanReturnedEventType,
			core.OverdueFineAssessedEventType,
			core.FinePaidEventType,
		).
		AndAnyPredicateOf(eventstore.P("LoanID", loanID)).
		Finalize()
}
