package outstandingfines_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation/circulation/features/query/outstandingfines"
	"github.com/shelfwise/circulation/circulation/shared/core"
)

var fakeClock = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func issued(loanID, userID string) core.LoanIssued {
	return core.BuildLoanIssued(
		loanID, userID, "book-1", userID, core.IssuerKindSelf,
		fakeClock, fakeClock.AddDate(0, 0, 7), fakeClock,
	)
}

func Test_Project_SumsUnpaidFinesOfUser(t *testing.T) {
	// arrange
	history := core.DomainEvents{
		issued("loan-1", "user-1"),
		issued("loan-2", "user-1"),
		issued("loan-3", "user-1"),
		issued("loan-4", "user-2"),
		core.BuildLoanReturned("loan-1", "user-1", "book-1", fakeClock, 30, fakeClock),
		core.BuildFinePaid("loan-1", "user-1", "book-1", 10, 10, false, fakeClock),
		core.BuildOverdueFineAssessed("loan-2", "user-1", "book-1", 50, fakeClock, fakeClock),
		core.BuildLoanReturned("loan-3", "user-1", "book-1", fakeClock, 20, fakeClock),
		core.BuildFinePaid("loan-3", "user-1", "book-1", 20, 20, true, fakeClock),
		core.BuildLoanReturned("loan-4", "user-2", "book-1", fakeClock, 40, fakeClock),
	}

	// act
	result := outstandingfines.Project(history, outstandingfines.BuildQuery("user-1"), 10)

	// assert
	assert.Equal(t, outstandingfines.OutstandingFines{
		UserID:           "user-1",
		TotalOutstanding: 70,
		UnpaidLoans:      2,
		SequenceNumber:   10,
	}, result)
}

func Test_Project_NoLoans(t *testing.T) {
	// act
	result := outstandingfines.Project(core.DomainEvents{}, outstandingfines.BuildQuery("user-1"), 0)

	// assert
	assert.Equal(t, core.Money(0), result.TotalOutstanding)
	assert.Equal(t, 0, result.UnpaidLoans)
}
