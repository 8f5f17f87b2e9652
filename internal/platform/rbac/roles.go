// Package rbac defines the closed set of user roles and the pure role check
// used by the workflow services. No transport or context plumbing lives here.
package rbac

import "fmt"

// Role is a user's role. The set is closed; roles are immutable after user creation.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleSectorOwner Role = "SECTOR_OWNER"
	RoleGtcPoint    Role = "GTC_POINT"
	RoleExternal    Role = "EXTERNAL"
)

// All lists every valid role.
var All = []Role{RoleAdmin, RoleSectorOwner, RoleGtcPoint, RoleExternal}

// Parse returns the Role for s, or an error when s is not a known role.
func Parse(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleSectorOwner, RoleGtcPoint, RoleExternal:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := Parse(string(r))
	return err == nil
}

// Authorize reports whether actual is one of the required roles.
// An empty required set denies everything.
func Authorize(required []Role, actual Role) bool {
	for _, r := range required {
		if r == actual {
			return true
		}
	}
	return false
}
