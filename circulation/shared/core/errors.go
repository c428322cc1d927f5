package core

import (
	"errors"
	"fmt"

	"github.com/shelfwise/circulation/eventstore"
)

// Kind is the machine-readable class of a circulation error.
type Kind string

const (
	KindNotFound           Kind = "NotFound"
	KindPolicyViolation    Kind = "PolicyViolation"
	KindOutOfStock         Kind = "OutOfStock"
	KindAlreadyReturned    Kind = "AlreadyReturned"
	KindAlreadyPaid        Kind = "AlreadyPaid"
	KindInsufficientAmount Kind = "InsufficientAmount"
	KindForbidden          Kind = "Forbidden"
	KindUnauthenticated    Kind = "Unauthenticated"
	KindConflict           Kind = "Conflict"
	KindWouldGoNegative    Kind = "WouldGoNegative"
	KindInvalidRequest     Kind = "InvalidRequest"
	KindInternal           Kind = "Internal"
)

// Sentinels for errors.Is, which matches any *Error of the same Kind.
var (
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrPolicyViolation    = &Error{Kind: KindPolicyViolation, Message: "borrowing cap reached"}
	ErrOutOfStock         = &Error{Kind: KindOutOfStock, Message: "no copies available"}
	ErrAlreadyReturned    = &Error{Kind: KindAlreadyReturned, Message: "loan already returned"}
	ErrAlreadyPaid        = &Error{Kind: KindAlreadyPaid, Message: "fine already paid"}
	ErrInsufficientAmount = &Error{Kind: KindInsufficientAmount, Message: "amount does not cover the outstanding fine"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Message: "missing or invalid credentials"}
	ErrConflict           = &Error{Kind: KindConflict, Message: "concurrent modification, please retry"}
	ErrWouldGoNegative    = &Error{Kind: KindWouldGoNegative, Message: "availability would leave its bounds"}
	ErrInvalidRequest     = &Error{Kind: KindInvalidRequest, Message: "invalid request"}
)

// Error is a circulation error: a stable Kind, a human-readable message, and the ids involved.
type Error struct {
	Kind    Kind
	Message string
	LoanID  LoanIDString
	BookID  BookIDString
	UserID  UserIDString
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Is matches every *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind
}

// ForLoan returns a copy of e that carries the loan's ids.
func (e *Error) ForLoan(loanID LoanIDString, userID UserIDString, bookID BookIDString) *Error {
	c := *e
	c.LoanID, c.UserID, c.BookID = loanID, userID, bookID

	return &c
}

// ForBook returns a copy of e that carries bookID.
func (e *Error) ForBook(bookID BookIDString) *Error {
	c := *e
	c.BookID = bookID

	return &c
}

// ForUser returns a copy of e that carries userID.
func (e *Error) ForUser(userID UserIDString) *Error {
	c := *e
	c.UserID = userID

	return &c
}

// KindOf maps any error to a Kind. A lost optimistic concurrency race is a Conflict,
// everything that is not a circulation error is Internal. KindOf(nil) is "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var circulationErr *Error
	if errors.As(err, &circulationErr) {
		return circulationErr.Kind
	}

	if errors.Is(err, eventstore.ErrConcurrencyConflict) {
		return KindConflict
	}

	return KindInternal
}

// AsError returns the *Error inside err, or one of the Kind KindOf(err) reports.
func AsError(err error) *Error {
	var circulationErr *Error
	if errors.As(err, &circulationErr) {
		return circulationErr
	}

	if KindOf(err) == KindConflict {
		return ErrConflict
	}

	return &Error{Kind: KindInternal, Message: "internal error"}
}
