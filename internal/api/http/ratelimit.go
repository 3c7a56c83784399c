package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/config"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// IssueRateLimiter caps issue submissions per account per calendar day using
// a Redis counter. With no Redis client the limiter is a no-op, so a local
// run without Redis still serves requests.
func IssueRateLimiter(client *redis.Client, cfg config.RateLimitConfig, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if client == nil || cfg.IssuesPerDay <= 0 {
			return c.Next()
		}
		principal, ok := auth.PrincipalFromContext(c)
		if !ok {
			return c.Next()
		}

		ctx := c.UserContext()
		key := fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, principal.Actor.ID, time.Now().UTC().Format("2006-01-02"))

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			// fail open: a rate-limit outage must not block submissions
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			if err := client.Expire(ctx, key, 24*time.Hour).Err(); err != nil {
				logger.Warn("rate limiter expire failed", zap.String("key", key), zap.Error(err))
			}
		}
		if count > int64(cfg.IssuesPerDay) {
			return apperrors.NewTooManyRequests(
				"daily issue submission limit reached",
				map[string]any{"limit": cfg.IssuesPerDay},
			)
		}
		return c.Next()
	}
}
