package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chirper/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver map[string]uint

func (s stubResolver) Authenticate(_ context.Context, token string) (uint, error) {
	if token == "db-down" {
		return 0, models.NewInternalError(errors.New("connection refused"))
	}
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, models.NewUnauthenticatedError("Invalid session")
}

func TestAuthRequired(t *testing.T) {
	app := fiber.New()
	resolver := stubResolver{"good": 123}

	app.Get("/test", AuthRequired(resolver), func(c *fiber.Ctx) error {
		uid, _ := c.UserContext().Value(UserIDKey).(uint)
		return c.JSON(fiber.Map{"userID": CurrentUserID(c), "ctxUserID": uid, "token": c.Locals(LocalToken)})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{name: "happy path", authHeader: "Bearer good", expectedStatus: http.StatusOK},
		{name: "missing header", expectedStatus: http.StatusUnauthorized},
		{name: "invalid format", authHeader: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "empty bearer", authHeader: "Bearer ", expectedStatus: http.StatusUnauthorized},
		{name: "unknown token", authHeader: "Bearer bad", expectedStatus: http.StatusUnauthorized},
		{name: "store failure is not a logout", authHeader: "Bearer db-down", expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, float64(123), body["userID"])
				assert.Equal(t, float64(123), body["ctxUserID"])
				assert.Equal(t, "good", body["token"])
			} else if tt.expectedStatus == http.StatusInternalServerError {
				assert.Equal(t, models.CodeInternal, body["code"])
			} else {
				assert.Equal(t, models.CodeUnauthenticated, body["code"])
			}
		})
	}
}

func TestWebSocketAuthRequired(t *testing.T) {
	app := fiber.New()
	app.Get("/ws-test", WebSocketAuthRequired(stubResolver{"good": 1}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name           string
		tokenParam     string
		authHeader     string
		expectedStatus int
	}{
		{name: "token via query param", tokenParam: "good", expectedStatus: http.StatusOK},
		{name: "token via header", authHeader: "Bearer good", expectedStatus: http.StatusOK},
		{name: "missing token", expectedStatus: http.StatusUnauthorized},
		{name: "invalid token", tokenParam: "invalid-token", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/ws-test"
			if tt.tokenParam != "" {
				path += "?token=" + tt.tokenParam
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}
