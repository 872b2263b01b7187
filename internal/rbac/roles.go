package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAdmin      = "admin"    // manages directory, whitelist and sync
	RoleOperator   = "operator" // day-to-day whitelist and invitation work
	RoleViewer     = "viewer"   // read-only consoles
	RoleSuperAdmin = "super_admin"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }
