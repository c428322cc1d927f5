package listloans_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation/circulation/features/query/listloans"
	"github.com/shelfwise/circulation/circulation/shared/core"
)

var fakeClock = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func issued(loanID, userID string, issueDate time.Time) core.LoanIssued {
	return core.BuildLoanIssued(
		loanID, userID, "book-1", userID, core.IssuerKindSelf,
		issueDate, issueDate.AddDate(0, 0, 7), issueDate,
	)
}

// history has four loans:
//   - loan-1 of user-1, returned late with an unpaid fine of 30
//   - loan-2 of user-1, active and overdue as of fakeClock+10d
//   - loan-3 of user-2, returned late with a paid fine
//   - loan-4 of user-2, active and not due as of fakeClock+10d
func history() core.DomainEvents {
	return core.DomainEvents{
		issued("loan-1", "user-1", fakeClock),
		issued("loan-2", "user-1", fakeClock),
		issued("loan-3", "user-2", fakeClock),
		issued("loan-4", "user-2", fakeClock.AddDate(0, 0, 5)),
		core.BuildLoanReturned("loan-1", "user-1", "book-1", fakeClock.AddDate(0, 0, 10), 30, fakeClock),
		core.BuildLoanReturned("loan-3", "user-2", "book-1", fakeClock.AddDate(0, 0, 9), 20, fakeClock),
		core.BuildFinePaid("loan-3", "user-2", "book-1", 20, 20, true, fakeClock),
	}
}

func loanIDs(list listloans.LoanList) []string {
	ids := make([]string, 0, len(list.Loans))
	for _, loan := range list.Loans {
		ids = append(ids, loan.LoanID)
	}

	return ids
}

func Test_Project_Filters(t *testing.T) {
	now := fakeClock.AddDate(0, 0, 10)

	testCases := []struct {
		name     string
		filter   listloans.Filter
		expected []string
	}{
		{name: "no filter", filter: listloans.Filter{}, expected: []string{"loan-1", "loan-2", "loan-3", "loan-4"}},
		{name: "by user", filter: listloans.Filter{UserID: "user-2"}, expected: []string{"loan-3", "loan-4"}},
		{name: "only active", filter: listloans.Filter{OnlyActive: true}, expected: []string{"loan-2", "loan-4"}},
		{name: "only unpaid", filter: listloans.Filter{OnlyUnpaid: true}, expected: []string{"loan-1"}},
		{name: "only overdue", filter: listloans.Filter{OnlyOverdue: true}, expected: []string{"loan-2"}},
		{name: "combined", filter: listloans.Filter{UserID: "user-1", OnlyActive: true}, expected: []string{"loan-2"}},
		{name: "nothing matches", filter: listloans.Filter{UserID: "user-3"}, expected: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			result := listloans.Project(history(), listloans.BuildQuery(tc.filter, now), 7)

			// assert
			assert.Equal(t, tc.expected, loanIDs(result))
			assert.Equal(t, len(tc.expected), result.Count)
			assert.Equal(t, uint(7), result.GetSequenceNumber())
		})
	}
}

func Test_Project_EmptyHistoryReturnsEmptySlice(t *testing.T) {
	// act
	result := listloans.Project(core.DomainEvents{}, listloans.BuildQuery(listloans.Filter{}, fakeClock), 0)

	// assert
	require.NotNil(t, result.Loans)
	assert.Empty(t, result.Loans)
}
