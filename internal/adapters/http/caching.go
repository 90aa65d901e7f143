package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on
// endpoint. Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/api/health" || path == "/api/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case strings.HasPrefix(path, "/api/resources"):
			ttl = "public, max-age=3600" // The directory snapshot is static

		case path == "/api/chat":
			ttl = "no-store" // Liveness ping; chat responses are per-request

		default:
			ttl = "no-cache"
		}

		c.Set("Cache-Control", ttl)
		return err
	}
}
