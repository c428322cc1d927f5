// Package activeloancount implements the ActiveCount query: how many loans a user has not returned yet,
// and whether the borrowing policy lets them borrow another book.
package activeloancount
