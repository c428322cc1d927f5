// Package catalog owns the availability counter of books.
//
// The stock of a book is projected from BookStockRegistered and AvailabilityAdjusted events.
// Loan features never build an AvailabilityAdjusted event themselves: they obtain it from Adjust,
// which enforces 0 <= available <= total, and append it together with their loan event.
//
// The Accessor is the boundary for everything else: looking up availability and registering stock.
package catalog
