// Package outstandingfines implements the OutstandingTotal query: the sum of the unpaid fines of a user.
package outstandingfines
