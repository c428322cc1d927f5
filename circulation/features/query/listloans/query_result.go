package listloans

import (
	"github.com/shelfwise/circulation/circulation/shared/core"
)

// LoanList represents the query result. Loans is empty, never nil, if nothing matches.
type LoanList struct {
	Loans          core.Loans
	Count          int
	SequenceNumber uint
}

// GetSequenceNumber returns the sequence number of the last event in the event history that was used to build the projection.
func (r LoanList) GetSequenceNumber() uint {
	return r.SequenceNumber
}
