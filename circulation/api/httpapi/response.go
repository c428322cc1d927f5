package httpapi

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/shelfwise/circulation/circulation/shared/core"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	circulationErr := core.AsError(err)

	writeJSON(w, statusFor(circulationErr.Kind), errorResponse{
		Status:  "error",
		Code:    circulationErr.Kind,
		Message: circulationErr.Message,
		Context: errorContext{
			LoanID: circulationErr.LoanID,
			BookID: circulationErr.BookID,
			UserID: circulationErr.UserID,
		},
	})
}

func statusFor(kind core.Kind) int {
	switch kind {
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindForbidden:
		return http.StatusForbidden
	case core.KindUnauthenticated:
		return http.StatusUnauthorized
	case core.KindInvalidRequest:
		return http.StatusBadRequest
	case core.KindConflict:
		return http.StatusConflict
	case core.KindPolicyViolation,
		core.KindOutOfStock,
		core.KindAlreadyReturned,
		core.KindAlreadyPaid,
		core.KindInsufficientAmount,
		core.KindWouldGoNegative:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
