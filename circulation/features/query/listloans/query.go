package listloans

import (
	"time"

	"github.com/shelfwise/circulation/circulation/shared/core"
)

const (
	queryType = "ListLoans"
)

// Filter selects loans. Zero values do not filter.
type Filter struct {
	UserID      core.UserIDString
	OnlyActive  bool
	OnlyUnpaid  bool
	OnlyOverdue bool
}

// Query represents the intent to list the loans matching Filter, with overdue evaluated as of Now.
type Query struct {
	Filter Filter
	Now    time.Time
}

// BuildQuery creates a new Query.
func BuildQuery(filter Filter, now time.Time) Query {
	return Query{
		Filter: filter,
		Now:    now,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
