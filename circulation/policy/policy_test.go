package policy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation/circulation/catalog"
	"github.com/shelfwise/circulation/circulation/policy"
	"github.com/shelfwise/circulation/circulation/shared/core"
)

func loansOf(events ...core.DomainEvent) core.Loans {
	return core.ProjectLoans(events)
}

func issued(loanID, userID string) core.LoanIssued {
	now := time.Now()
	return core.BuildLoanIssued(loanID, userID, "book-"+loanID, userID, core.IssuerKindSelf, now, now.AddDate(0, 0, 7), now)
}

func Test_CanBorrow_AllowedBelowCap(t *testing.T) {
	// arrange
	p := policy.NewBorrowingPolicy()
	loans := loansOf(issued("loan-1", "user-1"), issued("loan-2", "user-2"))

	// act
	decision := p.CanBorrow(loans, "user-1")

	// assert
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.ActiveCount)
}

func Test_CanBorrow_RejectedAtCap(t *testing.T) {
	// arrange
	p := policy.NewBorrowingPolicy()
	loans := loansOf(issued("loan-1", "user-1"), issued("loan-2", "user-1"))

	// act
	decision := p.CanBorrow(loans, "user-1")

	// assert
	assert.False(t, decision.Allowed)
	assert.Equal(t, 2, decision.ActiveCount)
}

func Test_CanBorrow_ReturnedLoansDoNotCount(t *testing.T) {
	// arrange
	p := policy.NewBorrowingPolicy()
	now := time.Now()
	loans := loansOf(
		issued("loan-1", "user-1"),
		issued("loan-2", "user-1"),
		core.BuildLoanReturned("loan-1", "user-1", "book-loan-1", now, 0, now),
	)

	// act
	decision := p.CanBorrow(loans, "user-1")

	// assert
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.ActiveCount)
}

func Test_CanIssue(t *testing.T) {
	p := policy.NewBorrowingPolicy()

	assert.True(t, p.CanIssue(catalog.Stock{Registered: true, TotalCopies: 1, AvailableCopies: 1}))
	assert.False(t, p.CanIssue(catalog.Stock{Registered: true, TotalCopies: 1, AvailableCopies: 0}))
	assert.Equal(t, 2, p.MaxActiveLoans())
}

func Test_WithMaxActiveLoans_RaisesCap(t *testing.T) {
	// arrange
	p := policy.NewBorrowingPolicy(policy.WithMaxActiveLoans(3))
	loans := loansOf(issued("loan-1", "user-1"), issued("loan-2", "user-1"))

	// act
	decision := p.CanBorrow(loans, "user-1")

	// assert
	assert.Equal(t, 3, p.MaxActiveLoans())
	assert.True(t, decision.Allowed)
	assert.Equal(t, 2, decision.ActiveCount)
}

func Test_WithMaxActiveLoans_IgnoresInvalidValue(t *testing.T) {
	// act
	p := policy.NewBorrowingPolicy(policy.WithMaxActiveLoans(0))

	// assert
	assert.Equal(t, policy.DefaultMaxActiveLoans, p.MaxActiveLoans())
}
