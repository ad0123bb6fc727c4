package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"ecommerce/internal/auth"
	"ecommerce/internal/httperr"
)

const claimsKey = "claims"

// AuthRequired is a Fiber middleware that validates the bearer token and
// stores the caller's claims in the request context.
func AuthRequired(verifier *auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return httperr.Respond(c, httperr.Unauthorizedf("authorization header is required"))
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return httperr.Respond(c, httperr.Unauthorizedf("authorization header format must be 'Bearer <token>'"))
		}

		claims, err := verifier.Verify(parts[1])
		if err != nil {
			return httperr.Respond(c, err)
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// CallerClaims returns the claims stored by AuthRequired. The zero value is
// returned on routes not behind the middleware.
func CallerClaims(c *fiber.Ctx) auth.Claims {
	claims, _ := c.Locals(claimsKey).(auth.Claims)
	return claims
}
