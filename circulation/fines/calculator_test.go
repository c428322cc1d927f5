package fines_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation/circulation/fines"
	"github.com/shelfwise/circulation/circulation/shared/core"
)

var issueDate = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
var dueDate = issueDate.AddDate(0, 0, 7)

func newCalculator(t *testing.T, options ...fines.Option) fines.Calculator {
	t.Helper()

	calculator, err := fines.NewCalculator(options...)
	require.NoError(t, err)

	return calculator
}

func Test_ComputeFine_NoFineUpToDueDate(t *testing.T) {
	// arrange
	calculator := newCalculator(t)

	// assert
	assert.Equal(t, core.Money(0), calculator.ComputeFine(issueDate, dueDate, issueDate.AddDate(0, 0, 3)))
	assert.Equal(t, core.Money(0), calculator.ComputeFine(issueDate, dueDate, dueDate))
}

func Test_ComputeFine_ReturnedTenDaysAfterIssue(t *testing.T) {
	// arrange
	calculator := newCalculator(t)

	// act
	fine := calculator.ComputeFine(issueDate, dueDate, issueDate.AddDate(0, 0, 10))

	// assert
	assert.Equal(t, core.Money(30), fine)
}

func Test_ComputeFine_CountsCalendarDaysNotHours(t *testing.T) {
	// arrange
	calculator := newCalculator(t)

	// act
	sameDayLater := calculator.ComputeFine(issueDate, dueDate, dueDate.Add(2*time.Hour))
	nextDayEarly := calculator.ComputeFine(issueDate, dueDate, time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC))

	// assert
	assert.Equal(t, core.Money(10), sameDayLater)
	assert.Equal(t, core.Money(10), nextDayEarly)
}

func Test_ComputeFine_UsesConfiguredLocation(t *testing.T) {
	// arrange
	utc := newCalculator(t, fines.WithRatePerDay(25))
	auckland := newCalculator(t, fines.WithLocation(time.FixedZone("UTC+12", 12*60*60)), fines.WithRatePerDay(25))
	asOf := dueDate.Add(27 * time.Hour)

	// act
	utcFine := utc.ComputeFine(issueDate, dueDate, asOf)
	aucklandFine := auckland.ComputeFine(issueDate, dueDate, asOf)

	// assert
	assert.Equal(t, core.Money(25), utcFine)
	assert.Equal(t, core.Money(50), aucklandFine)
}

func Test_ComputeFine_IsDeterministic(t *testing.T) {
	// arrange
	calculator := newCalculator(t)
	asOf := issueDate.AddDate(0, 0, 20)

	// act
	first := calculator.ComputeFine(issueDate, dueDate, asOf)
	second := calculator.ComputeFine(issueDate, dueDate, asOf)

	// assert
	assert.Equal(t, first, second)
	assert.Equal(t, core.Money(130), first)
}

func Test_NewCalculator_RejectsInvalidOptions(t *testing.T) {
	_, err := fines.NewCalculator(fines.WithRatePerDay(-1))
	assert.ErrorIs(t, err, fines.ErrNegativeRate)

	_, err = fines.NewCalculator(fines.WithLocation(nil))
	assert.ErrorIs(t, err, fines.ErrNilLocation)
}
