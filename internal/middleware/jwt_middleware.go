package middleware

import (
	"strings"

	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	// AccessTokenCookie carries the access JWT for browser clients.
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie carries the opaque refresh token.
	RefreshTokenCookie = "refreshToken"

	claimsKey = "claims"
)

// TokenValidator verifies access tokens. *services.AuthService implements it.
type TokenValidator interface {
	ValidateToken(token string) (*services.Claims, error)
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthRequired rejects requests without a valid access token, taken from the
// accessToken cookie or an "Authorization: Bearer" header.
func AuthRequired(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(AccessTokenCookie)
		if token == "" {
			token = bearerToken(c)
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Access token is not present",
			})
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired token",
			})
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// SuperAdminOnly must run after AuthRequired.
func SuperAdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := Claims(c)
		if !ok || !claims.IsSuperAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Access denied! Super admin access required",
			})
		}
		return c.Next()
	}
}

// Claims returns the identity stored by AuthRequired.
func Claims(c *fiber.Ctx) (*services.Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*services.Claims)
	return claims, ok && claims != nil
}

// UserID returns the authenticated user's ID, or "" outside AuthRequired.
func UserID(c *fiber.Ctx) string {
	if claims, ok := Claims(c); ok {
		return claims.UserID
	}
	return ""
}
