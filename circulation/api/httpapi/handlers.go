package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shelfwise/circulation/circulation/api"
	"github.com/shelfwise/circulation/circulation/features/query/listloans"
	"github.com/shelfwise/circulation/circulation/shared/core"
)

// Handler serves the circulation routes.
type Handler struct {
	service  *api.Service
	validate *validator.Validate
}

// NewHandler creates a Handler for service.
func NewHandler(service *api.Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

func (h *Handler) decode(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return core.NewError(core.KindInvalidRequest, "malformed JSON body: %v", err)
	}

	if err := h.validate.Struct(target); err != nil {
		return core.NewError(core.KindInvalidRequest, "%v", err)
	}

	return nil
}

func (h *Handler) adminIssue(w http.ResponseWriter, r *http.Request) {
	var req adminIssueRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	issueDate, dueDate, err := parseLoanDates(req.IssueDate, req.DueDate)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.AdminIssue(r.Context(), actorFrom(r.Context()), api.IssueRequest{
		LoanID:    req.LoanID,
		AdminID:   req.AdminID,
		UserID:    req.UserID,
		BookID:    req.BookID,
		IssueDate: issueDate,
		DueDate:   dueDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, issueLoanResponse{
		Message:         "Book issued successfully",
		LoanID:          result.LoanID,
		AvailableCopies: result.AvailableCopies,
	})
}

func (h *Handler) borrow(w http.ResponseWriter, r *http.Request) {
	var req issueLoanRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	issueDate, dueDate, err := parseLoanDates(req.IssueDate, req.DueDate)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Borrow(r.Context(), actorFrom(r.Context()), api.IssueRequest{
		LoanID:    req.LoanID,
		UserID:    req.UserID,
		BookID:    req.BookID,
		IssueDate: issueDate,
		DueDate:   dueDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, issueLoanResponse{
		Message:         "Book borrowed successfully",
		LoanID:          result.LoanID,
		AvailableCopies: result.AvailableCopies,
	})
}

func (h *Handler) returnLoan(w http.ResponseWriter, r *http.Request) {
	var req returnLoanRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Return(r.Context(), actorFrom(r.Context()), api.ReturnRequest{LoanID: req.LoanID, UserID: req.UserID})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, returnLoanResponse{
		Message:         "Book returned successfully",
		LoanID:          result.LoanID,
		FineAmount:      result.FineAmount,
		AvailableCopies: result.AvailableCopies,
	})
}

func (h *Handler) payFine(w http.ResponseWriter, r *http.Request) {
	var req payFineRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.PayFine(r.Context(), actorFrom(r.Context()), api.PayFineRequest{LoanID: req.LoanID, Amount: req.Amount})
	if err != nil {
		writeError(w, err)
		return
	}

	message := "Fine paid successfully"
	if !result.PaymentStatus {
		message = "Partial payment recorded"
	}

	writeJSON(w, http.StatusOK, payFineResponse{
		Message:       message,
		LoanID:        result.LoanID,
		FineAmount:    result.FineAmount,
		PaidAmount:    result.PaidAmount,
		PaymentStatus: result.PaymentStatus,
	})
}

func (h *Handler) listLoans(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	filter := listloans.Filter{UserID: values.Get("userId")}

	for name, target := range map[string]*bool{
		"onlyActive":  &filter.OnlyActive,
		"onlyUnpaid":  &filter.OnlyUnpaid,
		"onlyOverdue": &filter.OnlyOverdue,
	} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}

		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, core.NewError(core.KindInvalidRequest, "%s must be a boolean", name))
			return
		}

		*target = parsed
	}

	loans, err := h.service.ListLoans(r.Context(), actorFrom(r.Context()), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponses(loans))
}

func (h *Handler) activeCount(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ActiveCount(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, activeCountResponse{UserID: result.UserID, ActiveLoans: result.ActiveLoans, CanBorrow: result.CanBorrow})
}

func (h *Handler) outstanding(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.OutstandingTotal(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outstandingResponse{
		UserID:           result.UserID,
		TotalOutstanding: result.TotalOutstanding,
		UnpaidLoans:      result.UnpaidLoans,
	})
}

func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SweepOverdueFines(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sweepResponse{
		Examined:      result.Examined,
		Assessed:      result.Assessed,
		Failed:        result.Failed,
		FailedLoanIDs: result.FailedLoanIDs,
	})
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetAvailability(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "bookId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse(result))
}

func (h *Handler) registerStock(w http.ResponseWriter, r *http.Request) {
	var req registerStockRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.RegisterStock(r.Context(), actorFrom(r.Context()), api.RegisterStockRequest{
		BookID:      chi.URLParam(r, "bookId"),
		Title:       req.Title,
		TotalCopies: req.TotalCopies,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse(result))
}

// parseLoanDates accepts RFC 3339 timestamps or plain dates; empty values stay zero.
func parseLoanDates(issueDate, dueDate string) (time.Time, time.Time, error) {
	issue, err := parseDate("issueDate", issueDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	due, err := parseDate("dueDate", dueDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	return issue, due, nil
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, core.NewError(core.KindInvalidRequest, "%s must be RFC 3339 or YYYY-MM-DD", field)
}
