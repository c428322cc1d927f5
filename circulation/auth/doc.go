// Package auth resolves the caller of an API request from a bearer token.
//
// Tokens are HS256-signed JWTs carrying the user id as subject and a role claim ("user" or "admin").
// Account management and token issuance for real users are owned by the account service; Issue exists for
// service-to-service calls, development and tests.
package auth
