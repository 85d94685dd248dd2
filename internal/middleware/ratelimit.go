package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstore "github.com/gofiber/storage/redis/v3"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/config"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/dto"
)

// LimiterStorage returns a shared Redis store for rate-limit counters, or
// nil (per-process memory) when Redis is not configured.
func LimiterStorage(cfg *config.Config) fiber.Storage {
	if !cfg.RedisEnabled() {
		return nil
	}
	return redisstore.New(redisstore.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		Database: cfg.RedisDB,
	})
}

// UsersRateLimit throttles the /users routes per client IP.
func UsersRateLimit(cfg *config.Config, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               cfg.UsersRateLimitMax,
		Expiration:        cfg.UsersRateLimitWindow,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           storage,
		KeyGenerator:      func(c *fiber.Ctx) string { return "users:" + c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Detail: "Too many requests"})
		},
	})
}
