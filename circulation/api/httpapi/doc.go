// Package httpapi exposes the circulation Service over HTTP.
//
// Every route below /api requires an "Authorization: Bearer <jwt>" header. Errors are written as
//
//	{"status":"error","code":"<Kind>","message":"...","context":{"loanId":"...","bookId":"...","userId":"..."}}
//
// with the HTTP status derived from the error Kind.
package httpapi
