package types

// UserContext carries the authenticated user through a request. It is decoded
// from the JWT claims by the auth middleware and consulted by the access
// filter and the activity log.
type UserContext struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Active   bool    `json:"active"`
	Roles    []int64 `json:"roles"`
	// RoleNames mirrors Roles for the named system roles (Admin, DA, Mod).
	RoleNames []string `json:"roleNames"`

	// Per-user capability flags.
	ViewSimpleHistory bool `json:"viewSimpleHistory"`
	ViewFullHistory   bool `json:"viewFullHistory"`
	CanSelfAssign     bool `json:"canSelfAssign"`
	CanEditLocations  bool `json:"canEditLocations"`
	CanExport         bool `json:"canExport"`
	CanImportWeb      bool `json:"canImportWeb"`
}

// HasRoleName reports whether the user holds the named system role.
func (u *UserContext) HasRoleName(name string) bool {
	for _, r := range u.RoleNames {
		if r == name {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user holds the Admin system role.
func (u *UserContext) IsAdmin() bool {
	return u.HasRoleName(AdminRole)
}
