package models

// Role identifies which profile collection a user belongs to.
type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
	RoleAdmin  Role = "admin"
	RoleNone   Role = ""
)

// DashboardPath returns the client-side destination for a resolved role.
func (r Role) DashboardPath() string {
	switch r {
	case RoleSeller:
		return "/vendor/dashboard"
	case RoleBuyer:
		return "/buyer/dashboard"
	case RoleAdmin:
		return "/admin/dashboard"
	default:
		return ""
	}
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r == RoleSeller || r == RoleBuyer || r == RoleAdmin
}
