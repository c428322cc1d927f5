package outstandingfines

import (
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/eventstore"
)

// Project sums up fine minus paid amount over the unpaid loans of the queried user.
// Fines of active loans count as soon as the overdue sweep assessed them.
func Project(history core.DomainEvents, query Query, maxSequenceNumber eventstore.MaxSequenceNumberUint) OutstandingFines {
	result := OutstandingFines{
		UserID:         query.UserID,
		SequenceNumber: maxSequenceNumber,
	}

	for _, loan := range core.ProjectLoans(history) {
		if loan.UserID != query.UserID || !loan.IsUnpaid() {
			continue
		}

		result.TotalOutstanding += loan.Outstanding()
		result.UnpaidLoans++
	}

	return result
}

// BuildEventFilter creates the filter for all loan events of userID.
func BuildEventFilter(userID core.UserIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.LoanIssuedEventType,
			core.LoanReturnedEventType,
			core.OverdueFineAssessedEventType,
			core.FinePaidEventType,
		).
		AndAnyPredicateOf(eventstore.P("UserID", userID)).
		Finalize()
}
