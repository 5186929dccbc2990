package auth

import (
	"strings"

	"luxverify-backend/internal/apperr"
	"luxverify-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const ctxPrincipalKey = "principal"

// Principal is the authenticated operator attached to a request.
type Principal struct {
	UserID uint
	Email  string
	Role   models.UserRole
}

// PrincipalFrom returns the principal set by JWTMiddleware, if any.
func PrincipalFrom(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(ctxPrincipalKey).(Principal)
	return p, ok
}

func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.Authorization("missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return apperr.Authorization("Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(secret, strings.TrimSpace(parts[1]))
		if err != nil {
			return apperr.Authorization("invalid or expired token")
		}

		c.Locals(ctxPrincipalKey, Principal{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		})
		return c.Next()
	}
}

// RequireRole is the single guard in front of every admin handler.
func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return apperr.Authorization("authentication required")
		}
		for _, r := range allowedRoles {
			if r == p.Role {
				return c.Next()
			}
		}
		return apperr.Authorization("insufficient role")
	}
}

// RequireAdmin allows any administrative role.
func RequireAdmin() fiber.Handler {
	return RequireRole(models.RoleSuperAdmin, models.RoleAdmin)
}
