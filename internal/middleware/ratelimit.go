package middleware

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"chirper/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Limit is a fixed-window budget for one route.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
	// FailClosed rejects requests with 503 when a configured Redis errors.
	// Without a Redis client the limiter is always off.
	FailClosed bool
}

// Decision is the result of charging one request against a Limit.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

var errNoRateLimitStore = errors.New("rate limit store not configured")

// rateLimitEnabled is false outside deployed environments so local runs and tests are never throttled.
func rateLimitEnabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "development", "test":
		return false
	}
	return true
}

// Charge counts one request for subject under l and reports whether it fits the window.
// The window key is created with its expiry before the increment, so a counter never
// outlives its window.
func Charge(ctx context.Context, rdb *redis.Client, l Limit, subject string) (Decision, error) {
	if rdb == nil {
		return Decision{}, errNoRateLimitStore
	}

	key := "rl:" + l.Name + ":" + subject
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SetNX(ctx, key, 0, l.Window)
		incr = p.Incr(ctx, key)
		ttl = p.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return Decision{}, err
	}

	count := int(incr.Val())
	return Decision{
		Allowed:   count <= l.Max,
		Remaining: max(l.Max-count, 0),
		ResetIn:   ttl.Val(),
	}, nil
}

// RateLimit returns a Fiber middleware enforcing l. Signed-in requests are keyed by
// user id, anonymous ones by remote IP.
func RateLimit(rdb *redis.Client, l Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil || !rateLimitEnabled() {
			return c.Next()
		}

		subject := "ip:" + c.IP()
		if uid := CurrentUserID(c); uid != 0 {
			subject = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		d, err := Charge(c.UserContext(), rdb, l, subject)
		if err != nil {
			observability.RateLimitDecisions.WithLabelValues(l.Name, "store_error").Inc()
			if !l.FailClosed {
				return c.Next()
			}
			Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
				"limit", l.Name,
				"error", err,
			)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "rate limit unavailable",
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			observability.RateLimitDecisions.WithLabelValues(l.Name, "limited").Inc()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(d.ResetIn.Round(time.Second)/time.Second)))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		observability.RateLimitDecisions.WithLabelValues(l.Name, "allowed").Inc()
		return c.Next()
	}
}
