package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/VehanRajintha/ChatX/internal/auth"
)

// RateLimiter is a fixed-window per-key limiter over Redis.
type RateLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

// PerUser limits authenticated requests per session identity. Runs
// after the auth middleware.
func (r *RateLimiter) PerUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := auth.SessionFrom(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		key := fmt.Sprintf("%s:%s", r.prefix, sess.UserID)
		ctx := context.Background()
		count, err := r.rdb.Incr(ctx, key).Result()
		if err != nil {
			// Redis being down must not take writes with it.
			return c.Next()
		}
		if count == 1 {
			r.rdb.Expire(ctx, key, r.window)
		}
		if count > int64(r.limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}
