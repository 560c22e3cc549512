package stock

// Role is the coarse-grained role assigned by the backend
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
	RoleViewer Role = "viewer"
)

// Permissions understood by the dashboard
const (
	PermissionViewDashboard     = "dashboard:view"
	PermissionViewProducts      = "products:view"
	PermissionManageProducts    = "products:manage"
	PermissionViewSuppliers     = "suppliers:view"
	PermissionManageSuppliers   = "suppliers:manage"
	PermissionViewTransactions  = "transactions:view"
	PermissionCreateTransaction = "transactions:create"
	PermissionExportReports     = "reports:export"
	PermissionManageUsers       = "users:manage"
)

var rolePermissions = map[Role][]string{
	RoleAdmin: {
		PermissionViewDashboard, PermissionViewProducts, PermissionManageProducts,
		PermissionViewSuppliers, PermissionManageSuppliers, PermissionViewTransactions,
		PermissionCreateTransaction, PermissionExportReports, PermissionManageUsers,
	},
	RoleUser: {
		PermissionViewDashboard, PermissionViewProducts, PermissionManageProducts,
		PermissionViewSuppliers, PermissionViewTransactions, PermissionCreateTransaction,
		PermissionExportReports,
	},
	RoleViewer: {
		PermissionViewDashboard, PermissionViewProducts, PermissionViewSuppliers,
		PermissionViewTransactions,
	},
}

// DefaultPermissions returns a copy of the permission set granted to role
func DefaultPermissions(role Role) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// User is the authenticated user profile returned by the backend
type User struct {
	Username    string   `json:"username"`
	Email       string   `json:"email,omitempty"`
	FullName    string   `json:"full_name,omitempty"`
	Role        Role     `json:"role,omitempty"`
	Active      bool     `json:"active"`
	Permissions []string `json:"permissions,omitempty"`
}

// EffectivePermissions returns the explicit permissions, or the role defaults when none were sent
func (u *User) EffectivePermissions() []string {
	if len(u.Permissions) > 0 {
		return u.Permissions
	}
	return DefaultPermissions(u.Role)
}

// HasPermission reports whether the user holds perm
func (u *User) HasPermission(perm string) bool {
	for _, p := range u.EffectivePermissions() {
		if p == perm {
			return true
		}
	}
	return false
}

// Credentials is the login payload
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// Token is the login/refresh response
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        *User  `json:"user,omitempty"`
}
