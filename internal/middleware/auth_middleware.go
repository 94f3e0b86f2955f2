package middleware

import (
	"log"
	"strings"

	"jooba/internal/identity"

	"github.com/gofiber/fiber/v2"
)

// LocalsUID is the context key under which the authenticated uid is stored.
const LocalsUID = "uid"

// AuthRequired gates a route behind a valid bearer token. Both 401 variants
// are uniform: callers learn only that they are unauthenticated, never why
// verification failed. The guard does no resource-level authorization;
// ownership checks live in the endpoint handlers.
func AuthRequired(provider identity.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authorization header missing or invalid",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		uid, err := provider.VerifyToken(token)
		if err != nil {
			log.Printf("token verification failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals(LocalsUID, uid)
		return c.Next()
	}
}
