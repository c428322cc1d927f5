// Package policy decides whether a user may borrow and whether a book may be issued.
// It is pure: callers evaluate it on the same event history whose max sequence number guards their append.
package policy

import (
	"github.com/shelfwise/circulation/circulation/catalog"
	"github.com/shelfwise/circulation/circulation/shared/core"
)

// DefaultMaxActiveLoans is the borrowing cap per user.
const DefaultMaxActiveLoans = 2

// Decision is the answer to CanBorrow.
type Decision struct {
	Allowed     bool
	ActiveCount int
}

// BorrowingPolicy evaluates the borrowing cap and stock availability.
type BorrowingPolicy struct {
	maxActiveLoans int
}

// Option configures a BorrowingPolicy.
type Option func(*BorrowingPolicy)

// WithMaxActiveLoans sets the borrowing cap. Values below 1 keep the default.
func WithMaxActiveLoans(maxActiveLoans int) Option {
	return func(p *BorrowingPolicy) {
		if maxActiveLoans > 0 {
			p.maxActiveLoans = maxActiveLoans
		}
	}
}

// NewBorrowingPolicy creates a policy, with DefaultMaxActiveLoans unless configured otherwise.
func NewBorrowingPolicy(opts ...Option) BorrowingPolicy {
	p := BorrowingPolicy{maxActiveLoans: DefaultMaxActiveLoans}

	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// MaxActiveLoans returns the borrowing cap.
func (p BorrowingPolicy) MaxActiveLoans() int {
	return p.maxActiveLoans
}

// CanBorrow counts the active loans of userID; borrowing is allowed below the cap.
func (p BorrowingPolicy) CanBorrow(loans core.Loans, userID core.UserIDString) Decision {
	activeCount := core.CountActiveLoans(loans, userID)

	return Decision{
		Allowed:     activeCount < p.maxActiveLoans,
		ActiveCount: activeCount,
	}
}

// CanIssue reports whether a copy of the book is available.
func (p BorrowingPolicy) CanIssue(stock catalog.Stock) bool {
	return stock.AvailableCopies > 0
}
