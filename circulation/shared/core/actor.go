package core

// Role is the authorization role of an authenticated caller.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID UserIDString
	Role   Role
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// MayActFor reports whether the actor may act on resources owned by userID:
// admins may act for anyone, users only for themselves.
func (a Actor) MayActFor(userID UserIDString) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == userID)
}
