package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RateLimiter counts requests per client IP in fixed windows kept in Redis.
// A nil client disables limiting.
func RateLimiter(client *redis.Client, name string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if client == nil || limit <= 0 {
			return c.Next()
		}

		key := fmt.Sprintf("rate_limit:%s:%s", name, c.IP())
		ctx := c.UserContext()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("rate limiter unavailable, letting request through")
			return c.Next()
		}

		// first hit of the window
		if count == 1 {
			client.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			c.Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests, please try again later."})
		}

		return c.Next()
	}
}
