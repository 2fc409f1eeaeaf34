package handlers

import (
	"strings"

	"farmfresh/internal/domain"
	applog "farmfresh/internal/log"
	"farmfresh/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth accepts "Authorization: Bearer <token>" and stores the
// verified caller in Locals. Anything else is a 401.
func RequireAuth(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			applog.Security(c, "auth.token.missing", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Not authorized, login again"})
		}
		p, err := auth.VerifyToken(raw)
		if err != nil {
			applog.Security(c, "auth.token.invalid", map[string]any{"error": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Not authorized, login again"})
		}
		c.Locals(applog.PrincipalKey, p)
		return c.Next()
	}
}

// principal returns the caller stored by RequireAuth.
func principal(c *fiber.Ctx) domain.Principal {
	p, _ := c.Locals(applog.PrincipalKey).(domain.Principal)
	return p
}
