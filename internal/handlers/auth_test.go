package handlers

import (
	"net/http"
	"strings"
	"testing"

	"inkpost/internal/models"
	"inkpost/internal/service"
)

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Carol", "email": "Carol@Example.com", "password": "hunter22",
	}, "")
	expectStatus(t, rr, http.StatusCreated)
	var reg service.AuthResult
	out := decode(t, rr, &reg)
	if !out.Success || reg.Token == "" {
		t.Fatalf("register: got %+v", out)
	}
	if reg.User.Email != "carol@example.com" || reg.User.Role != models.RoleUser {
		t.Errorf("registered user: got %+v", reg.User)
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Error("response must not contain the password hash")
	}

	rr = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "carol@example.com", "password": "hunter22",
	}, "")
	expectStatus(t, rr, http.StatusOK)
	var login service.AuthResult
	decode(t, rr, &login)

	rr = env.do(t, http.MethodGet, "/api/auth/me", nil, login.Token)
	expectStatus(t, rr, http.StatusOK)
	var me models.User
	decode(t, rr, &me)
	if me.ID != reg.User.ID {
		t.Errorf("me: got %s, want %s", me.ID, reg.User.ID)
	}
}

func TestRegisterFailures(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"duplicate email", map[string]string{"name": "A", "email": "alice@example.com", "password": "secret123"}, http.StatusConflict},
		{"short password", map[string]string{"name": "A", "email": "a@example.com", "password": "123"}, http.StatusBadRequest},
		{"bad email", map[string]string{"name": "A", "email": "not-an-email", "password": "secret123"}, http.StatusBadRequest},
		{"missing name", map[string]string{"email": "b@example.com", "password": "secret123"}, http.StatusBadRequest},
		{"malformed json", `{"name":`, http.StatusBadRequest},
		{"empty body", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/auth/register", tt.body, "")
			expectStatus(t, rr, tt.want)
			if out := decode(t, rr, nil); out.Success || out.Error == "" {
				t.Errorf("expected error envelope, got %+v", out)
			}
		})
	}
}

func TestLoginFailuresShareMessage(t *testing.T) {
	env := newTestEnv(t)

	wrongPassword := env.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "alice@example.com", "password": "wrong-password"}, "")
	unknownEmail := env.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "nobody@example.com", "password": "secret123"}, "")

	expectStatus(t, wrongPassword, http.StatusUnauthorized)
	expectStatus(t, unknownEmail, http.StatusUnauthorized)
	if a, b := decode(t, wrongPassword, nil).Error, decode(t, unknownEmail, nil).Error; a != b {
		t.Errorf("messages differ: %q vs %q", a, b)
	}

	rr := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "alice@example.com"}, "")
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestMeRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		token string
	}{
		{"anonymous", ""},
		{"garbage token", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/api/auth/me", nil, tt.token)
			expectStatus(t, rr, http.StatusUnauthorized)
		})
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/auth/logout", nil, "")
	expectStatus(t, rr, http.StatusOK)
	out := decode(t, rr, nil)
	if !out.Success || string(out.Data) != "{}" || out.Message == "" {
		t.Errorf("logout: got %+v", out)
	}
}
