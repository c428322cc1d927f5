package activeloancount

import (
	"github.com/shelfwise/circulation/circulation/policy"
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/eventstore"
)

// Project counts the active loans of the queried user and evaluates the borrowing cap.
func Project(
	history core.DomainEvents,
	query Query,
	borrowingPolicy policy.BorrowingPolicy,
	maxSequenceNumber eventstore.MaxSequenceNumberUint,
) ActiveLoanCount {

	decision := borrowingPolicy.CanBorrow(core.ProjectLoans(history), query.UserID)

	return ActiveLoanCount{
		UserID:         query.UserID,
		ActiveLoans:    decision.ActiveCount,
		CanBorrow:      decision.Allowed,
		SequenceNumber: maxSequenceNumber,
	}
}

// BuildEventFilter creates the filter for the issue and return events of userID.
func BuildEventFilter(userID core.UserIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.LoanIssuedEventType,
			core.LoanReturnedEventType,
		).
		AndAnyPredicateOf(eventstore.P("UserID", userID)).
		Finalize()
}
