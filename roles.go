package console

// UserRole is the user's capability tier
type UserRole string

const (
	// RoleUser can file and manage their own incident reports
	RoleUser UserRole = "user"
	// RoleAdmin can additionally manage users and all reports
	RoleAdmin UserRole = "admin"
	// RoleSuperAdmin can additionally promote admins and read audit logs
	RoleSuperAdmin UserRole = "superadmin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role carries admin capabilities.
// Superadmin implies every admin capability; the converse does not hold.
func (r UserRole) IsAdmin() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// IsSuperAdmin reports whether the role is exactly superadmin
func (r UserRole) IsSuperAdmin() bool {
	return r == RoleSuperAdmin
}

// IsAtLeast checks if this role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleUser:       0,
		RoleAdmin:      1,
		RoleSuperAdmin: 2,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// String implements fmt.Stringer
func (r UserRole) String() string {
	return string(r)
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleUser,
		RoleAdmin,
		RoleSuperAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
