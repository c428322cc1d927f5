package core

import (
	"time"
)

// LoanIDString represents a loan identifier
type LoanIDString = string

// UserIDString represents a user identifier
type UserIDString = string

// BookIDString represents a book identifier
type BookIDString = string

// Money is an amount in minor currency units.
type Money = int64

// OccurredAtTS represents when an event occurred
type OccurredAtTS = time.Time

// IssuerKind tells whether a loan was issued by the borrowing user or by an admin.
type IssuerKind = string

const (
	IssuerKindSelf  IssuerKind = "self"
	IssuerKindAdmin IssuerKind = "admin"
)

// ToOccurredAt converts a time to OccurredAtTS with UTC normalization and microsecond precision
func ToOccurredAt(t time.Time) OccurredAtTS {
	return t.UTC().Truncate(time.Microsecond)
}
