package outstandingfines

import (
	"github.com/shelfwise/circulation/circulation/shared/core"
)

// OutstandingFines represents the query result.
type OutstandingFines struct {
	UserID           core.UserIDString
	TotalOutstanding core.Money
	UnpaidLoans      int
	SequenceNumber   uint
}

// GetSequenceNumber returns the sequence number of the last event in the event history that was used to build the projection.
func (r OutstandingFines) GetSequenceNumber() uint {
	return r.SequenceNumber
}
