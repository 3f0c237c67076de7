package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/account-service/pkg/util"
)

const loginAttemptKeyPrefix = "login:attempts:"

// LoginRateLimiter throttles login attempts per client address using Redis
// counters. When Redis is unreachable the limiter fails open so the login
// path stays available.
func LoginRateLimiter(client *redis.Client, logger *zap.Logger, maxAttempts int, window time.Duration) fiber.Handler {
	if client == nil || maxAttempts <= 0 {
		return nil
	}

	return func(c *fiber.Ctx) error {
		key := loginAttemptKeyPrefix + c.IP()

		count, err := client.Incr(c.UserContext(), key).Result()
		if err != nil {
			logger.Debug("login limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			if err := client.Expire(c.UserContext(), key, window).Err(); err != nil {
				logger.Debug("login limiter expire failed", zap.Error(err))
			}
		}
		if count > int64(maxAttempts) {
			return apperrors.NewTooManyRequests("too many login attempts")
		}
		return c.Next()
	}
}
