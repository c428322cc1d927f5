package activeloancount

import (
	"github.com/shelfwise/circulation/circulation/shared/core"
)

// ActiveLoanCount represents the query result.
type ActiveLoanCount struct {
	UserID         core.UserIDString
	ActiveLoans    int
	CanBorrow      bool
	SequenceNumber uint
}

// GetSequenceNumber returns the sequence number of the last event in the event history that was used to build the projection.
func (r ActiveLoanCount) GetSequenceNumber() uint {
	return r.SequenceNumber
}
