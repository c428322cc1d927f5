// Package core contains the domain events, the Loan read model, and the error taxonomy
// of library circulation: issuing books, returning them, and assessing and collecting fines.
//
// Loans are never stored as mutable rows. A Loan is projected from its events
// (LoanIssued, LoanReturned, OverdueFineAssessed, FinePaid), and the availability of a book
// from the catalog events (BookStockRegistered, AvailabilityAdjusted).
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core
