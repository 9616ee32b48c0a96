package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// ============================================================================
// RATE LIMITING MIDDLEWARE
// ============================================================================
// Protects the backend against abuse, with a stricter tier for the import
// endpoint since each import is a heavy multi-table write.

// GlobalRateLimiter limits every endpoint to 1000 requests per minute
// per IP.
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
				"message":     "Too many requests. Please try again in 1 minute.",
			})
		},
		SkipFailedRequests:     false,
		SkipSuccessfulRequests: false,
		LimiterMiddleware:      limiter.SlidingWindow{},
	})
}

// ImportRateLimiter limits dataset imports to 5 per minute per IP.
func ImportRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Per IP and path so imports do not starve other endpoints
			return c.IP() + ":" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Import rate limit exceeded",
				"retry_after": 60,
				"message":     "Too many import requests. Please try again in 1 minute.",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// APIRateLimiter limits general API endpoints to 200 requests per minute
// per IP.
func APIRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        200,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "API rate limit exceeded",
				"retry_after": 60,
				"message":     "Too many API requests. Please slow down.",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
