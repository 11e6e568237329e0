package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/api/http/handlers"
	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/domain"
)

// Route is one operation together with the access policy guarding it.
type Route struct {
	Method  string
	Path    string
	Policy  auth.Policy
	Handler fiber.Handler
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Config         *handlers.ConfigHandler
	Metrics        fiber.Handler
	AuthMiddleware *auth.AuthMiddleware
	Decisions      auth.DecisionObserver
}

// Routes returns the routing table. Every entry carries its policy.
func Routes(cfg RouteConfig) []Route {
	routes := []Route{
		{Method: fiber.MethodGet, Path: "/health/live", Policy: auth.Public(), Handler: cfg.Health.Live},
		{Method: fiber.MethodGet, Path: "/health/ready", Policy: auth.Public(), Handler: cfg.Health.Ready},

		{Method: fiber.MethodPost, Path: "/auth/register", Policy: auth.Public(), Handler: cfg.Auth.Register},
		{Method: fiber.MethodPost, Path: "/auth/login", Policy: auth.Public(), Handler: cfg.Auth.Login},
		{Method: fiber.MethodGet, Path: "/auth/me", Policy: auth.RequireAuthenticated(), Handler: cfg.Auth.Me},

		{
			Method:  fiber.MethodGet,
			Path:    "/users/:" + handlers.UserIDParam,
			Policy:  auth.RequireOwnerOrAuthority(domain.AuthorityReadAccess, handlers.UserIDParam),
			Handler: cfg.Users.GetUser,
		},
		{
			Method:  fiber.MethodPut,
			Path:    "/users/:" + handlers.UserIDParam + "/authorities",
			Policy:  auth.RequireAuthority(domain.AuthorityWriteUsers),
			Handler: cfg.Users.UpdateAuthorities,
		},

		{Method: fiber.MethodGet, Path: "/config/authorities", Policy: auth.RequireAuthority(domain.AuthorityConfig), Handler: cfg.Config.Authorities},
	}

	if cfg.Metrics != nil {
		routes = append(routes, Route{Method: fiber.MethodGet, Path: "/metrics", Policy: auth.Public(), Handler: cfg.Metrics})
	}
	return routes
}

// RegisterRoutes resolves the caller on every request and registers each
// route behind its policy.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.AuthMiddleware.Handle)

	for _, route := range Routes(cfg) {
		app.Add(route.Method, route.Path, auth.Enforce(route.Policy, cfg.Decisions), route.Handler)
	}
}
