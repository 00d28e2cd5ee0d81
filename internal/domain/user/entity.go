package user

import (
	"strings"
	"time"
)

type Role string

const (
	RoleSuperAdmin Role = "Super Admin" // Chain owner - overrides locked attendance
	RoleAdmin      Role = "Admin"       // Back-office staff, receives security alerts
	RoleManager    Role = "Manager"     // Outlet manager
	RoleStaff      Role = "Staff"       // Barista, cook, waiter
)

// AllRoles lists the roles in descending privilege.
var AllRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleStaff}

// ParseRole matches s against the known roles, ignoring case and surrounding space.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for _, r := range AllRoles {
		if strings.EqualFold(s, string(r)) {
			return r, true
		}
	}
	return "", false
}

type User struct {
	ID              string
	Email           string
	PasswordHash    *string
	Role            Role
	OAuthProvider   *string
	OAuthProviderID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Join
	EmployeeID *string
	OutletID   *string
}

// IsSuperAdmin checks if user can override locked attendance
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// IsAdmin checks if user is Admin or Super Admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
