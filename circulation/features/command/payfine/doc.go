// Package payfine implements paying the fine of a loan.
//
// By default a payment must cover the whole outstanding fine. With partial payments enabled,
// smaller payments are accumulated until the fine is covered.
package payfine
