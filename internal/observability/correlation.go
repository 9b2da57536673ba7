package observability

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CorrelationHeader carries the request correlation id in and out.
const CorrelationHeader = "X-Request-ID"

const maxCorrelationIDLength = 128

// CorrelationMiddleware attaches a correlation id to the request's user
// context, reusing a well-formed inbound X-Request-ID when present.
func CorrelationMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		correlationID := strings.TrimSpace(c.Get(CorrelationHeader))
		if correlationID == "" || len(correlationID) > maxCorrelationIDLength {
			correlationID = uuid.NewString()
		}

		c.SetUserContext(WithCorrelationID(c.UserContext(), correlationID))
		c.Set(CorrelationHeader, correlationID)

		return c.Next()
	}
}
