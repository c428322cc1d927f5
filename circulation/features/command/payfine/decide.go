package payfine

import (
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/eventstore"
)

// Result describes the payment state of the loan after the payment.
type Result struct {
	LoanID        core.LoanIDString
	UserID        core.UserIDString
	FineAmount    core.Money
	PaidAmount    core.Money
	PaymentStatus bool
}

// Decide implements the business logic of paying a fine.
//
// Business Rules:
//
//	GIVEN: a loan with an unpaid fine
//	WHEN: PayFine command is received
//	THEN: FinePaid is generated
//	ERROR: NotFound if the loan does not exist
//	ERROR: Forbidden if the actor is neither the borrower nor an admin
//	ERROR: InvalidRequest if the amount is not positive or nothing is outstanding
//	ERROR: AlreadyPaid if the fine was fully paid before
//	ERROR: InsufficientAmount if the amount does not cover the outstanding fine and partial payments are off
func Decide(history core.DomainEvents, command Command, allowPartial bool) (core.DecisionResult, Result) {
	loan, found := core.ProjectLoan(history, command.LoanID)
	if !found {
		return core.ErrorDecision(
			core.NewError(core.KindNotFound, "loan %s does not exist", command.LoanID).
				ForLoan(command.LoanID, "", ""),
		), Result{}
	}

	if !command.Actor.MayActFor(loan.UserID) {
		return core.ErrorDecision(
			core.NewError(core.KindForbidden, "user %s may not pay the fine of loan %s", command.Actor.UserID, loan.LoanID).
				ForLoan(loan.LoanID, loan.UserID, loan.BookID),
		), Result{}
	}

	if command.Amount <= 0 {
		return core.ErrorDecision(
			core.NewError(core.KindInvalidRequest, "amount must be positive, got %d", command.Amount).
				ForLoan(loan.LoanID, loan.UserID, loan.BookID),
		), Result{}
	}

	if loan.PaymentStatus {
		return core.ErrorDecision(
			core.NewError(core.KindAlreadyPaid, "fine of loan %s was already paid", loan.LoanID).
				ForLoan(loan.LoanID, loan.UserID, loan.BookID),
		), Result{}
	}

	outstanding := loan.Outstanding()
	if outstanding == 0 {
		return core.ErrorDecision(
			core.NewError(core.KindInvalidRequest, "loan %s has no outstanding fine", loan.LoanID).
				ForLoan(loan.LoanID, loan.UserID, loan.BookID),
		), Result{}
	}

	if command.Amount < outstanding && !allowPartial {
		return core.ErrorDecision(
			core.NewError(
				core.KindInsufficientAmount,
				"amount %d does not cover the outstanding fine of %d", command.Amount, outstanding,
			).ForLoan(loan.LoanID, loan.UserID, loan.BookID),
		), Result{}
	}

	paidTotal := loan.PaidAmount + command.Amount
	fullyPaid := paidTotal >= loan.FineAmount

	paid := core.BuildFinePaid(
		loan.LoanID,
		loan.UserID,
		loan.BookID,
		command.Amount,
		paidTotal,
		fullyPaid,
		command.OccurredAt,
	)

	return core.SuccessDecision(paid), Result{
		LoanID:        loan.LoanID,
		UserID:        loan.UserID,
		FineAmount:    loan.FineAmount,
		PaidAmount:    paidTotal,
		PaymentStatus: fullyPaid,
	}
}

// BuildEventFilter creates the filter for all events of the loan.
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
