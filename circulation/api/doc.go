// Package api is the Circulation API: one method per external request, each authorizing the actor and then
// running exactly one ledger command or query.
//
// Authorization rules:
//   - AdminIssue, SweepOverdueFines and RegisterStock require the admin role
//   - Borrow, Return, PayFine, ActiveCount and OutstandingTotal act for the authenticated user; acting on
//     another user's loans is Forbidden unless the actor is an admin
//   - ListLoans is restricted to the actor's own loans for non-admins
//
// Transport adapters live in sub-packages, see httpapi.
package api
