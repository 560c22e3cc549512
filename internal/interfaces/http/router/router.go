// Package router assembles the dashboard's gin routes. Every route declares
// the session requirement it needs and is guarded accordingly.
package router

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/stockmgmt/dashboard/internal/application/session"
)

// GuardFactory builds the middleware enforcing one route requirement
type GuardFactory func(req session.RouteRequirement) gin.HandlerFunc

// RouteRegistrar registers routes on a group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup, guard GuardFactory)
}

// RouteInfo describes a registered route
type RouteInfo struct {
	Method      string
	Path        string
	Requirement session.RouteRequirement
}

// Router manages route registration under /api/{version}
type Router struct {
	engine     *gin.Engine
	apiVersion string
	guard      GuardFactory
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithGuard sets the factory used to guard non-public routes. Without one
// requirements are recorded but not enforced.
func WithGuard(guard GuardFactory) RouterOption {
	return func(r *Router) {
		r.guard = guard
	}
}

// NewRouter creates a new Router
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds registrars to be set up later
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup registers every route with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api, r.guard)
	}
}

// DomainGroup collects the routes of one area of the dashboard
type DomainGroup struct {
	name        string
	prefix      string
	requirement session.RouteRequirement
	routes      []routeDefinition
	subgroups   []*DomainGroup
	middleware  []gin.HandlerFunc
}

type routeDefinition struct {
	method      string
	path        string
	requirement session.RouteRequirement
	handlers    []gin.HandlerFunc
}

// NewDomainGroup creates a group whose routes default to req
func NewDomainGroup(name, prefix string, req session.RouteRequirement) *DomainGroup {
	return &DomainGroup{
		name:        name,
		prefix:      prefix,
		requirement: req,
	}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// Handle registers a route with its own requirement
func (dg *DomainGroup) Handle(method, path string, req session.RouteRequirement, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{
		method:      method,
		path:        path,
		requirement: req,
		handlers:    handlers,
	})
	return dg
}

// GET registers a GET route with the group requirement
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodGet, path, dg.requirement, handlers...)
}

// POST registers a POST route with the group requirement
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPost, path, dg.requirement, handlers...)
}

// PUT registers a PUT route with the group requirement
func (dg *DomainGroup) PUT(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPut, path, dg.requirement, handlers...)
}

// DELETE registers a DELETE route with the group requirement
func (dg *DomainGroup) DELETE(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodDelete, path, dg.requirement, handlers...)
}

// Group creates a sub-group inheriting this group's requirement
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	sub := NewDomainGroup(name, prefix, dg.requirement)
	dg.subgroups = append(dg.subgroups, sub)
	return sub
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup, guard GuardFactory) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}

	for _, route := range dg.routes {
		handlers := route.handlers
		if guard != nil && !route.requirement.IsPublic() {
			handlers = slices.Concat([]gin.HandlerFunc{guard(route.requirement)}, handlers)
		}
		group.Handle(route.method, route.path, handlers...)
	}

	for _, sub := range dg.subgroups {
		sub.RegisterRoutes(group, guard)
	}
}

// Routes lists the group's routes relative to base, subgroups included
func (dg *DomainGroup) Routes(base string) []RouteInfo {
	prefix := joinPath(base, dg.prefix)
	out := make([]RouteInfo, 0, len(dg.routes))
	for _, route := range dg.routes {
		out = append(out, RouteInfo{
			Method:      route.method,
			Path:        joinPath(prefix, route.path),
			Requirement: route.requirement,
		})
	}
	for _, sub := range dg.subgroups {
		out = append(out, sub.Routes(prefix)...)
	}
	return out
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

func joinPath(base, rel string) string {
	switch {
	case rel == "" || rel == "/":
		return base
	case base == "" || base == "/":
		return rel
	}
	return base + rel
}
