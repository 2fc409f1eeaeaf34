package handlers

import (
	"errors"

	"farmfresh/internal/domain"
	applog "farmfresh/internal/log"

	"github.com/gofiber/fiber/v2"
)

// render writes the success envelope. extra holds siblings of data such as
// stats and count.
func render(c *fiber.Ctx, status int, message string, data any, extra fiber.Map) error {
	body := fiber.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.As(err, &fe):
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// fail logs err at the level its kind calls for and writes the error
// envelope. Internal details never reach the client.
func fail(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	c.Status(status)
	switch {
	case status == fiber.StatusBadRequest:
		applog.Security(c, "validation.fail", map[string]any{"error": err.Error()})
	case status == fiber.StatusUnauthorized || status == fiber.StatusForbidden:
		applog.Security(c, "access.denied", map[string]any{"error": err.Error()})
	case status < fiber.StatusInternalServerError:
		applog.Info(c, "request.rejected", map[string]any{"error": err.Error()})
	default:
		applog.Error(c, "server.error", err, nil)
	}
	return c.JSON(fiber.Map{"success": false, "message": publicMessage(err, status)})
}

func publicMessage(err error, status int) string {
	var fe *fiber.Error
	if errors.As(err, &fe) && status < fiber.StatusInternalServerError {
		return fe.Message
	}
	return domain.PublicMessage(err)
}

func badRequest(op, msg string) error { return domain.Validation(op, "%s", msg) }

// ErrorHandler is the app-wide fallback for errors that reached fiber
// without a response, including its own 404, 405 and 413.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusFor(err)
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	return c.Status(code).JSON(fiber.Map{"success": false, "message": publicMessage(err, code)})
}
