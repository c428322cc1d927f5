package core

import (
	"time"
)

// Loans is a slice of Loan read models, in the order the loans were issued.
type Loans = []Loan

// Loan is the read model of one book copy borrowed by one user, projected from its events.
type Loan struct {
	LoanID        LoanIDString
	UserID        UserIDString
	BookID        BookIDString
	IssuedBy      UserIDString
	IssuerKind    IssuerKind
	IssueDate     time.Time
	DueDate       time.Time
	ReturnDate    *time.Time
	FineAmount    Money
	PaidAmount    Money
	PaymentStatus bool
}

// IsActive reports whether the loan has not been returned yet.
func (l Loan) IsActive() bool {
	return l.ReturnDate == nil
}

// IsOverdue reports whether the loan is active and its due date lies before now.
func (l Loan) IsOverdue(now time.Time) bool {
	return l.IsActive() && l.DueDate.Before(now)
}

// IsUnpaid reports whether a fine was charged that has not been paid in full.
func (l Loan) IsUnpaid() bool {
	return l.FineAmount > 0 && !l.PaymentStatus
}

// Outstanding returns the part of the fine that is still to be paid.
func (l Loan) Outstanding() Money {
	if l.PaymentStatus || l.PaidAmount >= l.FineAmount {
		return 0
	}

	return l.FineAmount - l.PaidAmount
}

// ProjectLoans replays the history and returns every loan in it, in issue order.
// Events of loans whose LoanIssued is not part of the history are ignored.
func ProjectLoans(history DomainEvents) Loans {
	loans := make(Loans, 0)
	index := make(map[LoanIDString]int)

	for _, event := range history {
		if e, ok := event.(LoanIssued); ok {
			if _, exists := index[e.LoanID]; exists {
				continue
			}

			index[e.LoanID] = len(loans)
			loans = append(loans, Loan{
				LoanID:     e.LoanID,
				UserID:     e.UserID,
				BookID:     e.BookID,
				IssuedBy:   e.IssuedBy,
				IssuerKind: e.IssuerKind,
				IssueDate:  e.IssueDate,
				DueDate:    e.DueDate,
			})

			continue
		}

		loanID, ok := loanIDOf(event)
		if !ok {
			continue
		}

		i, exists := index[loanID]
		if !exists {
			continue
		}

		loans[i] = loans[i].apply(event)
	}

	return loans
}

// ProjectLoan returns the loan with loanID from the history.
func ProjectLoan(history DomainEvents, loanID LoanIDString) (Loan, bool) {
	for _, loan := range ProjectLoans(history) {
		if loan.LoanID == loanID {
			return loan, true
		}
	}

	return Loan{}, false
}

// CountActiveLoans returns how many loans of userID are not returned yet.
func CountActiveLoans(loans Loans, userID UserIDString) int {
	count := 0

	for _, loan := range loans {
		if loan.UserID == userID && loan.IsActive() {
			count++
		}
	}

	return count
}

func (l Loan) apply(event DomainEvent) Loan {
	switch e := event.(type) {
	case LoanReturned:
		if l.ReturnDate != nil {
			return l
		}

		returnDate := e.ReturnDate
		l.ReturnDate = &returnDate
		l.raiseFine(e.FineAmount)

	case OverdueFineAssessed:
		l.raiseFine(e.FineAmount)

	case FinePaid:
		l.PaidAmount = e.PaidTotal
		l.PaymentStatus = l.PaymentStatus || e.FullyPaid
	}

	return l
}

// raiseFine never lowers the fine, and a paid fine is frozen.
func (l *Loan) raiseFine(amount Money) {
	if l.PaymentStatus {
		return
	}

	l.FineAmount = max(l.FineAmount, amount)
}

func loanIDOf(event DomainEvent) (LoanIDString, bool) {
	switch e := event.(type) {
	case LoanReturned:
		return e.LoanID, true
	case OverdueFineAssessed:
		return e.LoanID, true
	case FinePaid:
		return e.LoanID, true
	}

	return "", false
}
