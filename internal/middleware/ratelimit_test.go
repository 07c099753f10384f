package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCharge_NoStore(t *testing.T) {
	_, err := Charge(context.Background(), nil, Limit{Name: "login", Max: 1, Window: time.Minute}, "ip:1")
	assert.ErrorIs(t, err, errNoRateLimitStore)
}

func TestCharge_FixedWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	l := Limit{Name: "follow", Max: 2, Window: time.Minute}

	for want := 1; want >= 0; want-- {
		d, err := Charge(ctx, rdb, l, "user:1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, want, d.Remaining)
	}

	d, err := Charge(ctx, rdb, l, "user:1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Zero(t, d.Remaining)
	assert.Greater(t, d.ResetIn, time.Duration(0))
	assert.LessOrEqual(t, d.ResetIn, time.Minute)

	// Other subjects have their own budget.
	d, err = Charge(ctx, rdb, l, "user:2")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	assert.Greater(t, mr.TTL("rl:follow:user:1"), time.Duration(0))

	mr.FastForward(2 * time.Minute)
	d, err = Charge(ctx, rdb, l, "user:1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	get := func(t *testing.T, app *fiber.App, path string) *http.Response {
		t.Helper()
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}
	one := Limit{Name: "limited", Max: 1, Window: time.Minute}

	for _, env := range []string{"", "development", "test"} {
		t.Run("disabled in env="+env, func(t *testing.T) {
			t.Setenv("APP_ENV", env)
			_, rdb := newTestRedis(t)
			app := fiber.New()
			app.Get("/limited", RateLimit(rdb, one), handler)

			for i := 0; i < 3; i++ {
				assert.Equal(t, http.StatusOK, get(t, app, "/limited").StatusCode)
			}
		})
	}

	t.Run("no redis means no limiting", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		app := fiber.New()
		app.Get("/limited", RateLimit(nil, Limit{Name: "limited", Max: 1, Window: time.Minute, FailClosed: true}), handler)

		assert.Equal(t, http.StatusOK, get(t, app, "/limited").StatusCode)
		assert.Equal(t, http.StatusOK, get(t, app, "/limited").StatusCode)
	})

	t.Run("rejects over limit with headers", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		_, rdb := newTestRedis(t)
		app := fiber.New()
		app.Get("/limited", RateLimit(rdb, one), handler)

		first := get(t, app, "/limited")
		assert.Equal(t, http.StatusOK, first.StatusCode)
		assert.Equal(t, "1", first.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", first.Header.Get("X-RateLimit-Remaining"))

		second := get(t, app, "/limited")
		assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
		assert.NotEmpty(t, second.Header.Get(fiber.HeaderRetryAfter))
	})

	t.Run("store outage", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		mr, rdb := newTestRedis(t)
		mr.Close()

		app := fiber.New()
		app.Get("/open", RateLimit(rdb, one), handler)
		closed := one
		closed.FailClosed = true
		app.Get("/closed", RateLimit(rdb, closed), handler)

		assert.Equal(t, http.StatusOK, get(t, app, "/open").StatusCode)
		assert.Equal(t, http.StatusServiceUnavailable, get(t, app, "/closed").StatusCode)
	})

	t.Run("signed-in users are keyed by id", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		mr, rdb := newTestRedis(t)
		app := fiber.New()
		app.Get("/limited", func(c *fiber.Ctx) error {
			c.Locals(LocalUserID, uint(7))
			return c.Next()
		}, RateLimit(rdb, one), handler)

		assert.Equal(t, http.StatusOK, get(t, app, "/limited").StatusCode)
		assert.True(t, mr.Exists("rl:limited:user:7"))
	})
}
