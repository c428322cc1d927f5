// Package returnloan implements returning a lent copy.
//
// The return computes the fine for the return date, records it on LoanReturned, and gives the copy
// back to the catalog with an AvailabilityAdjusted(+1) event. Both events are appended atomically,
// guarded by the loan's events and the stock events of its book.
package returnloan
