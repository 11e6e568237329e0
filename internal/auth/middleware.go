package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

const contextKey = "auth_context"

// AuthMiddleware resolves the caller for every request. It never rejects;
// rejection is left to Enforce.
type AuthMiddleware struct {
	resolver *Resolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(resolver *Resolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Handle stores the resolved Context in the request locals.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	c.Locals(contextKey, m.resolver.ResolveHeader(c.Get(fiber.HeaderAuthorization)))
	return c.Next()
}

// ContextFrom returns the caller resolved for this request, or the
// anonymous context if none was stored.
func ContextFrom(c *fiber.Ctx) *Context {
	if ac, ok := c.Locals(contextKey).(*Context); ok && ac != nil {
		return ac
	}
	return Anonymous()
}

// Decision records one policy evaluation at the enforcement boundary.
type Decision struct {
	Policy    Policy
	Method    string
	Route     string
	SubjectID *int64
	Allowed   bool
}

// DecisionObserver receives every enforcement decision.
type DecisionObserver interface {
	PolicyDecided(d Decision)
}

// Enforce evaluates policy against the request's Context before the
// operation runs. Anonymous callers are refused with 401, authenticated
// callers lacking authority with 403.
func Enforce(policy Policy, observer DecisionObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ac := ContextFrom(c)
		allowed := Evaluate(policy, ac, ownerFromRoute(c, policy.OwnerParam))

		if observer != nil {
			d := Decision{Policy: policy, Method: c.Method(), Route: c.Route().Path, Allowed: allowed}
			if id, ok := ac.SubjectID(); ok {
				d.SubjectID = &id
			}
			observer.PolicyDecided(d)
		}

		if allowed {
			return c.Next()
		}
		if ac.IsAnonymous() {
			return apperrors.NewUnauthorized("authentication required")
		}
		return apperrors.NewForbidden("insufficient authority")
	}
}

func ownerFromRoute(c *fiber.Ctx, param string) *int64 {
	if param == "" {
		return nil
	}
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// DecisionObservers fans a decision out to several observers.
type DecisionObservers []DecisionObserver

// PolicyDecided forwards d to every non-nil observer.
func (o DecisionObservers) PolicyDecided(d Decision) {
	for _, obs := range o {
		if obs != nil {
			obs.PolicyDecided(d)
		}
	}
}
