package session

import (
	"slices"

	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// AccessState is everything route access depends on
type AccessState struct {
	IsAuthenticated bool
	Role            stock.Role
	Permissions     []string
}

// RouteRequirement is what a route declares it needs. The zero value is a public route.
type RouteRequirement struct {
	// Authenticated requires a session; implied by Roles or Permissions
	Authenticated bool
	// Roles, when set, admits only these roles
	Roles []stock.Role
	// Permissions must all be held
	Permissions []string
}

// Public is the requirement of routes open to everyone
var Public = RouteRequirement{}

// Authenticated is the requirement of routes open to any signed-in user
var Authenticated = RouteRequirement{Authenticated: true}

// RequirePermission builds a requirement for the given permissions
func RequirePermission(perms ...string) RouteRequirement {
	return RouteRequirement{Authenticated: true, Permissions: perms}
}

// RequireRole builds a requirement admitting the given roles
func RequireRole(roles ...stock.Role) RouteRequirement {
	return RouteRequirement{Authenticated: true, Roles: roles}
}

// IsPublic reports whether the route needs no session
func (r RouteRequirement) IsPublic() bool {
	return !r.Authenticated && len(r.Roles) == 0 && len(r.Permissions) == 0
}

// CanAccess decides route access from state alone, with no backend call
func CanAccess(state AccessState, req RouteRequirement) bool {
	if req.IsPublic() {
		return true
	}
	if !state.IsAuthenticated {
		return false
	}
	if len(req.Roles) > 0 && !slices.Contains(req.Roles, state.Role) {
		return false
	}
	for _, p := range req.Permissions {
		if !slices.Contains(state.Permissions, p) {
			return false
		}
	}
	return true
}
