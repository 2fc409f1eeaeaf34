package handlers_test

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"farmfresh/internal/domain"
	"farmfresh/internal/http/handlers"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.Validation("op", "bad"), fiber.StatusBadRequest},
		{domain.Unauthorized("op", "who"), fiber.StatusUnauthorized},
		{domain.Forbidden("op", "no"), fiber.StatusForbidden},
		{domain.NotFound("op", "gone"), fiber.StatusNotFound},
		{domain.Conflict("op", "clash"), fiber.StatusConflict},
		{fmt.Errorf("wrapped: %w", domain.Conflict("op", "clash")), fiber.StatusConflict},
		{fiber.ErrRequestEntityTooLarge, fiber.StatusRequestEntityTooLarge},
		{domain.Internal("op", errors.New("disk full")), fiber.StatusInternalServerError},
		{errors.New("plain"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := handlers.StatusFor(tc.err); got != tc.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

// Internal failures get a friendly message; details stay in the log.
func TestErrorHandlerFriendlyMessage(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	app.Get("/err", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "db timeout: secret trace")
	})
	app.Get("/domain-err", func(c *fiber.Ctx) error {
		return domain.Internal("repo.Get", errors.New("sqlite: secret path /var/db"))
	})

	for _, path := range []string{"/err", "/domain-err"} {
		var logs []logEntry
		var s string
		var code int
		logs = captureLogs(t, func() {
			resp, err := app.Test(httptest.NewRequest("GET", path, nil))
			if err != nil {
				t.Fatalf("test request failed: %v", err)
			}
			code = resp.StatusCode
			body, _ := io.ReadAll(resp.Body)
			s = string(body)
		})
		if code != fiber.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", path, code)
		}
		if !strings.Contains(s, "Something went wrong") {
			t.Fatalf("%s: friendly message missing; body=%s", path, s)
		}
		if strings.Contains(s, "secret") {
			t.Fatalf("%s: internal details leaked to user; body=%s", path, s)
		}
		if _, ok := findLog(logs, "server.error"); !ok {
			t.Fatalf("%s: server.error not logged", path)
		}
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	ta := newTestApp(t, appOpts{})
	status, env := ta.call(t, "GET", "/api/nope", "", nil)
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if env.Success || env.Message == "" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}
