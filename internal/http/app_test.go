package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"

	"farmfresh/internal/config"
	"farmfresh/internal/http/handlers"
	"farmfresh/internal/repos"
	"farmfresh/internal/services"
)

// The app under test lives on 2026-10-16, so "2026-10-17" is a valid pickup.
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

const tomorrow = "2026-10-17"

type testApp struct {
	app   *fiber.App
	db    *sqlx.DB
	media *repos.MediaRepo
}

type appOpts struct {
	loginMax  int
	bodyMax   int
	globalMax int
}

// newTestApp builds the same stack main does on a seeded in-memory
// database. The global limiter is only installed when globalMax is set.
func newTestApp(t *testing.T, opts appOpts) *testApp {
	t.Helper()
	if opts.loginMax == 0 {
		opts.loginMax = 100
	}
	if opts.bodyMax == 0 {
		opts.bodyMax = 5 << 20
	}
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.SeedDemo(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	media, err := repos.NewMediaRepo(t.TempDir())
	if err != nil {
		t.Fatalf("media: %v", err)
	}

	cfg := config.Config{DBDSN: ":memory:", JWTSecret: "test-secret", TokenTTL: 24 * time.Hour}
	authSvc := services.NewAuthService(repos.NewUserRepo(db), cfg.JWTSecret, cfg.TokenTTL, fixedClock{t: testNow})

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Server().MaxRequestBodySize = opts.bodyMax
	app.Use(requestid.New())
	if opts.globalMax > 0 {
		app.Use(limiter.New(limiter.Config{Max: opts.globalMax, Expiration: time.Minute}))
	}
	app.Get("/uploads/*", handlers.Uploads(media))

	deps := handlers.NewDeps(db, cfg, authSvc, media, nil)
	deps.Mount(app.Group("/api"), limiter.New(limiter.Config{Max: opts.loginMax, Expiration: time.Minute}))
	return &testApp{app: app, db: db, media: media}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Stats   json.RawMessage `json:"stats"`
	Count   int             `json:"count"`
}

func (ta *testApp) do(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %s: %v body=%s", req.URL.Path, err, raw)
		}
	}
	return resp.StatusCode, env
}

// call sends body as JSON (when non-nil) with an optional bearer token.
func (ta *testApp) call(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := newReq(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ta.do(t, req)
}

func newReq(method, path string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, path, body)
}

func (ta *testApp) login(t *testing.T, email string) string {
	t.Helper()
	status, env := ta.call(t, "POST", "/api/user/login", "", map[string]string{"email": email, "password": "Passw0rd!"})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d %s", email, status, env.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	decode(t, env.Data, &data)
	if data.Token == "" {
		t.Fatalf("login %s: no token", email)
	}
	return data.Token
}

func decode(t *testing.T, raw json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Role   string         `json:"role"`
	Status int            `json:"status"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// captureLogs swaps the standard logger output while fn runs and returns the
// JSON entries written.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
