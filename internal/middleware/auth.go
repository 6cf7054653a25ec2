package middleware

import (
	"context"
	"strings"

	"brimasouk/internal/apperror"
	"brimasouk/internal/auth"

	"github.com/labstack/echo/v4"
)

const actorKey = "actor"

// Authenticator resolves a bearer token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Actor, error)
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok {
				return apperror.Unauthenticated("No token, authorization denied")
			}

			actor, err := authn.Authenticate(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(actorKey, actor)
			return next(c)
		}
	}
}

// OptionalAuth identifies the caller when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, ok := bearerToken(c); ok {
				if actor, err := authn.Authenticate(c.Request().Context(), token); err == nil {
					c.Set(actorKey, actor)
				}
			}
			return next(c)
		}
	}
}

// ActorFrom returns the authenticated caller, or the zero Actor.
func ActorFrom(c echo.Context) auth.Actor {
	actor, _ := c.Get(actorKey).(auth.Actor)
	return actor
}
