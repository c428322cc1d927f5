// Package issueloan implements issuing a book copy to a user, either self-service (Borrow)
// or by an admin (AdminIssue).
//
// It follows the Query-Decide-Append pattern: the handler queries the stock events of the book
// and the loan events of the user, the pure Decide function evaluates the borrowing policy and
// the availability, and the handler appends LoanIssued together with the AvailabilityAdjusted
// event obtained from the catalog. Concurrent issues for the same book or the same user therefore
// conflict on append; the loser re-queries once and decides again.
package issueloan
