package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"templify/internal/identity"
	"templify/internal/model"
)

// ActorLocalKey is the key under which the authenticated actor is stored in
// Fiber's context locals.
const ActorLocalKey = "actor"

// Auth authenticates the request's bearer token through the resolver and
// stores the resulting actor in context locals. Requests without a valid
// token are rejected with 401 before reaching any handler.
func Auth(resolver identity.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		actor, err := resolver.Resolve(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(ActorLocalKey, actor)
		return c.Next()
	}
}

// ActorFromCtx returns the authenticated actor stored by Auth. The zero actor
// is returned when the middleware did not run.
func ActorFromCtx(c *fiber.Ctx) model.Actor {
	actor, _ := c.Locals(ActorLocalKey).(model.Actor)
	return actor
}
