package middleware

import (
	"brimasouk/internal/apperror"
	"brimasouk/internal/auth"

	"github.com/labstack/echo/v4"
)

// Require gates a route on the caller's role. It must run after RequireAuth.
func Require(policy *auth.Policy, resource, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := ActorFrom(c)
			if actor.ID == "" {
				return apperror.Unauthenticated("No token, authorization denied")
			}

			allowed, err := policy.Allowed(actor.Role, resource, action)
			if err != nil {
				return apperror.Internal(err, "Authorization check failed")
			}
			if !allowed {
				return apperror.Forbidden("Access denied. Insufficient permissions.").
					With("role", actor.Role)
			}

			return next(c)
		}
	}
}
