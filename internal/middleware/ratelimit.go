package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"showcase/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when Redis cannot be reached.
type FailPolicy int

const (
	FailOpen FailPolicy = iota
	FailClosed
)

var errNoLimiterStore = errors.New("rate limit store not configured")

// Decision is the outcome of one fixed-window check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// rateLimitBypassed is true for APP_ENV test, development (the default)
// and stress.
func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return true
	}
	return false
}

// CheckRateLimit counts one hit for id against resource in a fixed window
// that opens at the first hit. The key is rl:<resource>:<id>.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (Decision, error) {
	if rateLimitBypassed() {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	if rdb == nil {
		return Decision{}, errNoLimiterStore
	}

	key := "rl:" + resource + ":" + id
	pipe := rdb.TxPipeline()
	hits := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", resource, err)
	}

	n := int(hits.Val())
	d := Decision{Allowed: n <= limit, Limit: limit, Remaining: max(limit-n, 0)}
	if !d.Allowed {
		d.RetryAfter = ttl.Val()
		if d.RetryAfter <= 0 {
			d.RetryAfter = window
		}
	}
	return d, nil
}

// RateLimit allows limit requests per window, keyed by the authenticated
// user or else the client IP. name groups routes into one bucket and
// defaults to the request path. Redis failures let requests through.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}
		id := "ip:" + c.IP()
		if uid, ok := UserID(c); ok {
			id = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		d, err := CheckRateLimit(c.UserContext(), rdb, resource, id, limit, window)
		if err != nil {
			if policy == FailOpen {
				return c.Next()
			}
			Logger.WarnContext(c.UserContext(), "rate limit store unavailable, rejecting",
				slog.String("resource", resource),
				slog.String("error", err.Error()),
			)
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error: "Rate limiting unavailable",
				Code:  models.CodeUnavailable,
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests",
				Code:  models.CodeRateLimited,
			})
		}
		return c.Next()
	}
}
