package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RouteLogger writes one completion line per request with method, path,
// status, duration, and the request ID set by Tracing. Failures at warn
// level so upstream 5xx spikes stand out in the log stream.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}
		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Warn()
		}
		event.
			Str("request_id", RequestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request completed")
		return err
	}
}
