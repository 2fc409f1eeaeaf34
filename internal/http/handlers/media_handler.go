package handlers

import (
	"path/filepath"
	"strings"

	applog "farmfresh/internal/log"
	"farmfresh/internal/repos"

	"github.com/gofiber/fiber/v2"
)

// Uploads serves stored product images. Only flat file names inside the
// media directory are served.
func Uploads(media *repos.MediaRepo) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("*")
		lower := strings.ToLower(name)
		// Block encoded traversal attempts as well as raw .. or null bytes
		if strings.Contains(lower, "..") || strings.Contains(lower, "%2e") || strings.Contains(lower, "\x00") ||
			strings.ContainsAny(name, `/\`) || name == "" {
			applog.Security(c, "media.traversal.block", map[string]any{"path": name})
			return c.SendStatus(fiber.StatusNotFound)
		}
		if filepath.Clean(name) != name {
			applog.Security(c, "media.traversal.block", map[string]any{"path": name})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(media.Path(name), false)
	}
}
