package api

import (
	"time"

	"github.com/shelfwise/circulation/circulation/shared/core"
)

// IssueRequest is the input of AdminIssue and Borrow. Zero dates fall back to now and now plus the
// borrowing period. A zero LoanID lets the service assign one; clients that retry pass their own.
type IssueRequest struct {
	LoanID    string
	AdminID   core.UserIDString
	UserID    core.UserIDString
	BookID    core.BookIDString
	IssueDate time.Time
	DueDate   time.Time
}

// ReturnRequest is the input of Return. UserID is optional and must match the borrower if set.
type ReturnRequest struct {
	LoanID core.LoanIDString
	UserID core.UserIDString
}

// PayFineRequest is the input of PayFine.
type PayFineRequest struct {
	LoanID core.LoanIDString
	Amount core.Money
}

// RegisterStockRequest is the input of RegisterStock.
type RegisterStockRequest struct {
	BookID      core.BookIDString
	Title       string
	TotalCopies int
}
