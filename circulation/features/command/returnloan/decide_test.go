package returnloan_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation/circulation/features/command/returnloan"
	"github.com/shelfwise/circulation/circulation/fines"
	"github.com/shelfwise/circulation/circulation/shared/core"
)

var fakeClock = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

var borrower = core.Actor{UserID: "user-1", Role: core.RoleUser}

func newCalculator(t *testing.T) fines.Calculator {
	t.Helper()

	calculator, err := fines.NewCalculator()
	require.NoError(t, err)

	return calculator
}

func lentHistory() core.DomainEvents {
	return core.DomainEvents{
		core.BuildBookStockRegistered("book-1", "Dune", 3, 3, fakeClock),
		core.BuildLoanIssued(
			"loan-1", "user-1", "book-1", "user-1", core.IssuerKindSelf,
			fakeClock, fakeClock.AddDate(0, 0, 7), fakeClock,
		),
		core.BuildAvailabilityAdjusted("book-1", "loan-1", -1, 2, fakeClock),
	}
}

func Test_Decide_ReturnTenDaysAfterIssueCostsThirty(t *testing.T) {
	// arrange
	returnDate := fakeClock.AddDate(0, 0, 10)
	command := returnloan.BuildCommand("loan-1", borrower, returnDate, returnDate)

	// act
	decision, result := returnloan.Decide(lentHistory(), command, newCalculator(t))

	// assert
	require.NoError(t, decision.HasError())
	require.Len(t, decision.Events, 2)
	returned, ok := decision.Events[0].(core.LoanReturned)
	require.True(t, ok)
	assert.Equal(t, core.Money(30), returned.FineAmount)
	assert.Equal(t, returnDate, returned.ReturnDate)
	adjusted, ok := decision.Events[1].(core.AvailabilityAdjusted)
	require.True(t, ok)
	assert.Equal(t, 1, adjusted.Delta)
	assert.Equal(t, 3, result.AvailableCopies)
	assert.Equal(t, core.Money(30), result.FineAmount)
}

func Test_Decide_ReturnBeforeDueDateHasNoFine(t *testing.T) {
	// arrange
	returnDate := fakeClock.AddDate(0, 0, 3)

	// act
	decision, result := returnloan.Decide(lentHistory(), returnloan.BuildCommand("loan-1", borrower, returnDate, returnDate), newCalculator(t))

	// assert
	require.NoError(t, decision.HasError())
	assert.Equal(t, core.Money(0), result.FineAmount)
}

func Test_Decide_KeepsHigherAssessedFine(t *testing.T) {
	// arrange
	history := append(lentHistory(), core.BuildOverdueFineAssessed("loan-1", "user-1", "book-1", 500, fakeClock, fakeClock))
	returnDate := fakeClock.AddDate(0, 0, 8)

	// act
	_, result := returnloan.Decide(history, returnloan.BuildCommand("loan-1", borrower, returnDate, returnDate), newCalculator(t))

	// assert
	assert.Equal(t, core.Money(500), result.FineAmount)
}

func Test_Decide_PaidFineIsFrozenAtReturn(t *testing.T) {
	// arrange
	sweptAt := fakeClock.AddDate(0, 0, 8)
	history := append(
		lentHistory(),
		core.BuildOverdueFineAssessed("loan-1", "user-1", "book-1", 10, sweptAt, sweptAt),
		core.BuildFinePaid("loan-1", "user-1", "book-1", 10, 10, true, sweptAt),
	)
	returnDate := fakeClock.AddDate(0, 0, 40)

	// act
	decision, result := returnloan.Decide(history, returnloan.BuildCommand("loan-1", borrower, returnDate, returnDate), newCalculator(t))

	// assert
	require.NoError(t, decision.HasError())
	returned, ok := decision.Events[0].(core.LoanReturned)
	require.True(t, ok)
	assert.Equal(t, core.Money(10), returned.FineAmount)
	assert.Equal(t, core.Money(10), result.FineAmount)
}

func Test_Decide_AdminMayReturnForUser(t *testing.T) {
	// arrange
	admin := core.Actor{UserID: "admin-1", Role: core.RoleAdmin}

	// act
	decision, _ := returnloan.Decide(lentHistory(), returnloan.BuildCommand("loan-1", admin, time.Time{}, fakeClock), newCalculator(t))

	// assert
	assert.NoError(t, decision.HasError())
}

func Test_Decide_Errors(t *testing.T) {
	returned := append(lentHistory(), core.BuildLoanReturned("loan-1", "user-1", "book-1", fakeClock, 0, fakeClock))

	testCases := []struct {
		name     string
		history  core.DomainEvents
		command  returnloan.Command
		expected error
	}{
		{
			name:     "unknown loan",
			history:  lentHistory(),
			command:  returnloan.BuildCommand("loan-2", borrower, time.Time{}, fakeClock),
			expected: core.ErrNotFound,
		},
		{
			name:     "other user",
			history:  lentHistory(),
			command:  returnloan.BuildCommand("loan-1", core.Actor{UserID: "user-2", Role: core.RoleUser}, time.Time{}, fakeClock),
			expected: core.ErrForbidden,
		},
		{
			name:    "owner mismatch",
			history: lentHistory(),
			command: returnloan.BuildCommand("loan-1", core.Actor{UserID: "admin-1", Role: core.RoleAdmin}, time.Time{}, fakeClock).
				WithOwner("user-2"),
			expected: core.ErrInvalidRequest,
		},
		{
			name:     "already returned",
			history:  returned,
			command:  returnloan.BuildCommand("loan-1", borrower, time.Time{}, fakeClock),
			expected: core.ErrAlreadyReturned,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			decision, _ := returnloan.Decide(tc.history, tc.command, newCalculator(t))

			// assert
			assert.ErrorIs(t, decision.HasError(), tc.expected)
			assert.False(t, decision.HasEventsToAppend())
		})
	}
}
