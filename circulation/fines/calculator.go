// Package fines computes overdue fines. Lateness is counted in calendar days of the configured location.
package fines

import (
	"errors"
	"time"

	"github.com/shelfwise/circulation/circulation/shared/core"
)

const (
	// DefaultRatePerDay is the fine per calendar day late, in minor currency units.
	DefaultRatePerDay core.Money = 10
)

var (
	// ErrNegativeRate is returned when the rate per day is negative.
	ErrNegativeRate = errors.New("fine rate per day must not be negative")

	// ErrNilLocation is returned when no location is given.
	ErrNilLocation = errors.New("fine location must not be nil")
)

// Calculator computes fines. The zero value is not usable, use NewCalculator.
type Calculator struct {
	ratePerDay core.Money
	location   *time.Location
}

// Option configures a Calculator.
type Option func(*Calculator) error

// WithRatePerDay sets the fine per calendar day late.
func WithRatePerDay(rate core.Money) Option {
	return func(c *Calculator) error {
		if rate < 0 {
			return ErrNegativeRate
		}

		c.ratePerDay = rate

		return nil
	}
}

// WithLocation sets the location whose calendar days are counted.
func WithLocation(location *time.Location) Option {
	return func(c *Calculator) error {
		if location == nil {
			return ErrNilLocation
		}

		c.location = location

		return nil
	}
}

// NewCalculator creates a Calculator charging DefaultRatePerDay in UTC unless configured otherwise.
func NewCalculator(options ...Option) (Calculator, error) {
	c := Calculator{
		ratePerDay: DefaultRatePerDay,
		location:   time.UTC,
	}

	for _, option := range options {
		if err := option(&c); err != nil {
			return Calculator{}, err
		}
	}

	return c, nil
}

// RatePerDay returns the configured rate.
func (c Calculator) RatePerDay() core.Money {
	return c.ratePerDay
}

// ComputeFine returns 0 if asOf is not after dueDate, otherwise RatePerDay times DaysLate.
// The issue date is currently not used.
func (c Calculator) ComputeFine(_ time.Time, dueDate time.Time, asOf time.Time) core.Money {
	return c.ratePerDay * core.Money(c.DaysLate(dueDate, asOf))
}

// DaysLate counts the calendar days from dueDate to asOf. Any lateness on the due day itself counts as one day.
func (c Calculator) DaysLate(dueDate time.Time, asOf time.Time) int {
	if !asOf.After(dueDate) {
		return 0
	}

	days := civilDay(asOf.In(c.location)) - civilDay(dueDate.In(c.location))
	if days < 1 {
		return 1
	}

	return days
}

// civilDay returns the number of days since the epoch of t's calendar date, ignoring the clock.
func civilDay(t time.Time) int {
	year, month, day := t.Date()

	return int(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
