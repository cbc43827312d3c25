package domain

import "slices"

// Role is a user's authorization level.
type Role string

// Roles, from least to most privileged.
const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// ErrForbidden is returned by Authorize when the user's role is not allowed.
var ErrForbidden = NewError(KindForbidden, "You have no permission to do this action.")

// Authorize reports whether user may act given the allowed roles.
func Authorize(user *User, allowed ...Role) error {
	if user == nil || !slices.Contains(allowed, user.Role) {
		return ErrForbidden
	}
	return nil
}
