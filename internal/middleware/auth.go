// Package middleware provides the HTTP middleware chain: authentication, logging, tracing, metrics and rate limiting.
package middleware

import (
	"context"
	"strings"

	"chirper/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LocalToken holds the raw bearer token of an authenticated request.
const LocalToken = "token"

// SessionResolver turns a bearer token into the id of the user it belongs to.
type SessionResolver interface {
	Authenticate(ctx context.Context, token string) (uint, error)
}

// AuthRequired enforces a valid session on protected routes.
func AuthRequired(resolver SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		return authenticate(c, resolver, token)
	}
}

// WebSocketAuthRequired accepts the token as a ?token= query parameter, since
// browsers cannot set headers on websocket upgrades, and falls back to the header.
func WebSocketAuthRequired(resolver SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			var err error
			token, err = bearerToken(c.Get(fiber.HeaderAuthorization))
			if err != nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized, err)
			}
		}
		return authenticate(c, resolver, token)
	}
}

func authenticate(c *fiber.Ctx, resolver SessionResolver, token string) error {
	userID, err := resolver.Authenticate(c.UserContext(), token)
	if err != nil {
		if models.ErrorCode(err) == models.CodeUnauthenticated {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthenticatedError("Invalid or expired token"))
		}
		// A failing user lookup is not a logout.
		Logger.ErrorContext(c.UserContext(), "session resolution failed", "error", err)
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	c.Locals(LocalUserID, userID)
	c.Locals(LocalToken, token)
	c.SetUserContext(WithUserID(c.UserContext(), userID))
	return c.Next()
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", models.NewUnauthenticatedError("Authorization header required")
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", models.NewUnauthenticatedError("Invalid authorization header format")
	}
	return parts[1], nil
}

// CurrentUserID returns the authenticated user id, or 0 when the request has no session.
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}
