package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"
const requestIDLocal = "request_id"

// Tracing tags every request with an ID, echoed back in the response
// header. An inbound X-Request-Id (e.g. from the frontend proxy) is
// reused so one user action correlates across services.
func Tracing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Locals(requestIDLocal, requestID)
		c.Set(requestIDHeader, requestID)
		return c.Next()
	}
}

// RequestID returns the current request's ID, empty outside Tracing.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocal).(string)
	return id
}
