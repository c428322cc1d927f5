package httpapi

import (
	"time"

	"github.com/shelfwise/circulation/circulation/shared/core"
)

type issueLoanRequest struct {
	LoanID    string `json:"loanId" validate:"omitempty,uuid"`
	AdminID   string `json:"adminId"`
	UserID    string `json:"userId"`
	BookID    string `json:"bookId" validate:"required"`
	IssueDate string `json:"issueDate"`
	DueDate   string `json:"dueDate"`
}

type adminIssueRequest struct {
	LoanID    string `json:"loanId" validate:"omitempty,uuid"`
	AdminID   string `json:"adminId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
	BookID    string `json:"bookId" validate:"required"`
	IssueDate string `json:"issueDate"`
	DueDate   string `json:"dueDate"`
}

type returnLoanRequest struct {
	LoanID string `json:"loanId" validate:"required"`
	UserID string `json:"userId"`
}

type payFineRequest struct {
	LoanID string `json:"loanId" validate:"required"`
	Amount int64  `json:"amount" validate:"gt=0"`
}

type registerStockRequest struct {
	Title       string `json:"title"`
	TotalCopies int    `json:"totalCopies" validate:"gte=0"`
}

type issueLoanResponse struct {
	Message         string `json:"message"`
	LoanID          string `json:"loanId"`
	AvailableCopies int    `json:"availableCopies"`
}

type returnLoanResponse struct {
	Message         string `json:"message"`
	LoanID          string `json:"loanId"`
	FineAmount      int64  `json:"fineAmount"`
	AvailableCopies int    `json:"availableCopies"`
}

type payFineResponse struct {
	Message       string `json:"message"`
	LoanID        string `json:"loanId"`
	FineAmount    int64  `json:"fineAmount"`
	PaidAmount    int64  `json:"paidAmount"`
	PaymentStatus bool   `json:"paymentStatus"`
}

type loanResponse struct {
	LoanID        string     `json:"loanId"`
	UserID        string     `json:"userId"`
	BookID        string     `json:"bookId"`
	IssuedBy      string     `json:"issuedBy"`
	IssuerKind    string     `json:"issuerKind"`
	IssueDate     time.Time  `json:"issueDate"`
	DueDate       time.Time  `json:"dueDate"`
	ReturnDate    *time.Time `json:"returnDate"`
	FineAmount    int64      `json:"fineAmount"`
	PaidAmount    int64      `json:"paidAmount"`
	PaymentStatus bool       `json:"paymentStatus"`
}

type activeCountResponse struct {
	UserID      string `json:"userId"`
	ActiveLoans int    `json:"activeLoans"`
	CanBorrow   bool   `json:"canBorrow"`
}

type outstandingResponse struct {
	UserID           string `json:"userId"`
	TotalOutstanding int64  `json:"totalOutstanding"`
	UnpaidLoans      int    `json:"unpaidLoans"`
}

type sweepResponse struct {
	Examined      int      `json:"examined"`
	Assessed      int      `json:"assessed"`
	Failed        int      `json:"failed"`
	FailedLoanIDs []string `json:"failedLoanIds,omitempty"`
}

type availabilityResponse struct {
	BookID          string `json:"bookId"`
	TotalCopies     int    `json:"totalCopies"`
	AvailableCopies int    `json:"availableCopies"`
}

type errorContext struct {
	LoanID string `json:"loanId,omitempty"`
	BookID string `json:"bookId,omitempty"`
	UserID string `json:"userId,omitempty"`
}

type errorResponse struct {
	Status  string       `json:"status"`
	Code    core.Kind    `json:"code"`
	Message string       `json:"message"`
	Context errorContext `json:"context"`
}

func toLoanResponses(loans core.Loans) []loanResponse {
	out := make([]loanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, loanResponse{
			LoanID:        l.LoanID,
			UserID:        l.UserID,
			BookID:        l.BookID,
			IssuedBy:      l.IssuedBy,
			IssuerKind:    l.IssuerKind,
			IssueDate:     l.IssueDate,
			DueDate:       l.DueDate,
			ReturnDate:    l.ReturnDate,
			FineAmount:    l.FineAmount,
			PaidAmount:    l.PaidAmount,
			PaymentStatus: l.PaymentStatus,
		})
	}

	return out
}
