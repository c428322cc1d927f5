package outstandingfines

import (
	"github.com/shelfwise/circulation/circulation/shared/core"
)

const (
	queryType = "OutstandingFines"
)

// Query represents the intent to sum up the outstanding fines of a user.
type Query struct {
	UserID core.UserIDString
}

// BuildQuery creates a new Query with the provided user ID.
func BuildQuery(userID core.UserIDString) Query {
	return Query{
		UserID: userID,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
