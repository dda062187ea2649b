package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"recipebox/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when the counter store is unreachable.
type FailPolicy int

const (
	FailOpen FailPolicy = iota
	FailClosed
)

var errNoRedis = errors.New("rate limit store not configured")

// Rule is a fixed-window limit for one named route family.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

// Decision is the outcome of counting one request against a Rule.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter counts requests per caller in Redis fixed windows.
// A disabled limiter admits everything without touching Redis.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
}

func NewRateLimiter(rdb *redis.Client, enabled bool) *RateLimiter {
	return &RateLimiter{rdb: rdb, enabled: enabled}
}

func counterKey(rule, caller string) string {
	return "rl:" + rule + ":" + caller
}

// Allow counts one hit for caller under rule.
func (l *RateLimiter) Allow(ctx context.Context, rule Rule, caller string) (Decision, error) {
	if !l.enabled {
		return Decision{Allowed: true, Remaining: rule.Limit}, nil
	}
	if l.rdb == nil {
		return Decision{}, errNoRedis
	}

	key := counterKey(rule.Name, caller)
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, rule.Window).Err(); err != nil {
			return Decision{}, err
		}
	}

	d := Decision{Allowed: count <= int64(rule.Limit)}
	if d.Allowed {
		d.Remaining = rule.Limit - int(count)
		return d, nil
	}
	ttl, err := l.rdb.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = rule.Window
	}
	d.RetryAfter = ttl
	return d, nil
}

// callerID keys signed-in callers by user and everyone else by address.
func callerID(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(string); ok && uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.IP()
}

// Handler enforces rule on the route it is mounted on.
func (l *RateLimiter) Handler(rule Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := l.Allow(c.UserContext(), rule, callerID(c))
		if err != nil {
			if rule.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, rejecting",
					slog.String("rule", rule.Name),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "Rate limit unavailable",
					Code:  models.CodeInternal,
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			secs := int(d.RetryAfter.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
