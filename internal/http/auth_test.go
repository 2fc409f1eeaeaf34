package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// Seeded passwords are stored as bcrypt hashes, never plaintext.
func TestPasswordsSeededAreHashed(t *testing.T) {
	ta := newTestApp(t, appOpts{})
	var hashes []string
	if err := ta.db.Select(&hashes, `SELECT password_hash FROM users`); err != nil {
		t.Fatalf("select hashes: %v", err)
	}
	if len(hashes) == 0 {
		t.Fatal("no users seeded")
	}
	for _, h := range hashes {
		if strings.Contains(h, "Passw0rd!") {
			t.Fatalf("hash contains plaintext password")
		}
		if !strings.HasPrefix(h, "$2") {
			t.Fatalf("unexpected hash format: %s", h)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h), []byte("Passw0rd!")); err != nil {
			t.Fatalf("seed hash does not validate known password: %v", err)
		}
	}
}

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	ta := newTestApp(t, appOpts{loginMax: 2})

	status, env := ta.call(t, "POST", "/api/user/login", "", map[string]string{"email": "carla@farmfresh.test", "password": "wrongpass!"})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad creds, got %d", status)
	}
	if env.Success || env.Message != "Invalid email or password" {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	status, env = ta.call(t, "POST", "/api/user/login", "", map[string]string{"email": "carla@farmfresh.test", "password": "Passw0rd!"})
	if status != http.StatusOK || !env.Success {
		t.Fatalf("expected 200 on success, got %d %s", status, env.Message)
	}
	var data struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	decode(t, env.Data, &data)
	if data.Token == "" {
		t.Fatal("token missing")
	}
	if data.User["userType"] != "customer" {
		t.Fatalf("unexpected user: %v", data.User)
	}
	if _, leaked := data.User["password_hash"]; leaked {
		t.Fatal("password hash leaked")
	}

	// third attempt inside the window is throttled
	status, _ = ta.call(t, "POST", "/api/user/login", "", map[string]string{"email": "carla@farmfresh.test", "password": "Passw0rd!"})
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after throttle, got %d", status)
	}
}

func TestRegisterThenProfile(t *testing.T) {
	ta := newTestApp(t, appOpts{})

	reg := map[string]string{
		"name": "Ravi", "email": "ravi@example.com", "password": "s3cretpass", "userType": "customer",
		"phone": "+91 99999 22222", "address": "9 Temple Road, Pune",
	}
	status, env := ta.call(t, "POST", "/api/user/register", "", reg)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", status, env.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	decode(t, env.Data, &data)

	status, env = ta.call(t, "POST", "/api/user/register", "", reg)
	if status != http.StatusConflict || env.Message != "User already exists" {
		t.Fatalf("expected 409 for duplicate, got %d %s", status, env.Message)
	}

	status, env = ta.call(t, "GET", "/api/user/profile", data.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("profile: %d %s", status, env.Message)
	}
	var u map[string]any
	decode(t, env.Data, &u)
	if u["email"] != "ravi@example.com" || u["address"] != "9 Temple Road, Pune" {
		t.Fatalf("unexpected profile: %v", u)
	}

	status, env = ta.call(t, "PUT", "/api/user/profile", data.Token, map[string]string{"phone": "+91 99999 33333"})
	if status != http.StatusOK {
		t.Fatalf("update profile: %d %s", status, env.Message)
	}
	decode(t, env.Data, &u)
	if u["phone"] != "+91 99999 33333" {
		t.Fatalf("phone not updated: %v", u)
	}
}

func TestTokenRequired(t *testing.T) {
	ta := newTestApp(t, appOpts{})

	cases := []struct {
		name, header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"garbage", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := newReq("GET", "/api/cart/get", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			status, env := ta.do(t, req)
			if status != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", status)
			}
			if env.Message != "Not authorized, login again" {
				t.Fatalf("unexpected message %q", env.Message)
			}
		})
	}
}
