package listloans

import (
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/eventstore"
)

// Project implements the query logic of ListLoans.
//
// Query Logic:
//
//	GIVEN: the loan events, of one user or of all users
//	WHEN: ListLoans query is executed
//	THEN: the loans matching every set filter flag are returned in issue order
//	ACTIVE: the loan is not returned
//	UNPAID: the loan has a fine and it is not fully paid
//	OVERDUE: the loan is active and its due date is before Now
func Project(history core.DomainEvents, query Query, maxSequenceNumber eventstore.MaxSequenceNumberUint) LoanList {
	loans := make(core.Loans, 0)

	for _, loan := range core.ProjectLoans(history) {
		if matches(loan, query) {
			loans = append(loans, loan)
		}
	}

	return LoanList{
		Loans:          loans,
		Count:          len(loans),
		SequenceNumber: maxSequenceNumber,
	}
}

func matches(loan core.Loan, query Query) bool {
	filter := query.Filter

	switch {
	case filter.UserID != "" && loan.UserID != filter.UserID:
		return false
	case filter.OnlyActive && !loan.IsActive():
		return false
	case filter.OnlyUnpaid && !loan.IsUnpaid():
		return false
	case filter.OnlyOverdue && !loan.IsOverdue(query.Now):
		return false
	}

	return true
}

// BuildEventFilter creates the filter for the loan events of userID, or of all users if userID is empty.
func BuildEventFilter(userID core.UserIDString) eventstore.Filter {
	loanEvents := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.LoanIssuedEventType,
			core.LoanReturnedEventType,
			core.OverdueFineAssessedEventType,
			core.FinePaidEventType,
		)

	if userID == "" {
		return loanEvents.Finalize()
	}

	return loanEvents.
		AndAnyPredicateOf(eventstore.P("UserID", userID)).
		Finalize()
}
