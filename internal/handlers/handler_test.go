// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against the in-memory store behind a chi mux carrying the
// same identity middleware as the real router.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"inkpost/internal/auth"
	"inkpost/internal/authz"
	"inkpost/internal/memstore"
	"inkpost/internal/middleware"
	"inkpost/internal/models"
	"inkpost/internal/service"
)

// envelope mirrors the response body with raw data for per-test decoding.
type envelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Count      *int                `json:"count"`
	Pagination *service.Pagination `json:"pagination"`
	Category   string              `json:"category"`
	Message    string              `json:"message"`
	Error      string              `json:"error"`
}

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	DB       *memstore.DB
	Tokens   *auth.Tokens
	Accounts *service.AccountService
	Router   http.Handler
	Objects  *memObjects

	Alice, Bob, Admin *models.User
}

// memObjects keeps uploaded objects in a map.
type memObjects struct {
	objects map[string][]byte
}

func (m *memObjects) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = b
	return nil
}

func (m *memObjects) FileURL(key string) string {
	return "https://cdn.example.com/" + key
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := memstore.New()
	policy, err := authz.New()
	if err != nil {
		t.Fatalf("authz.New: %v", err)
	}
	tokens, err := auth.NewTokens("handler-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("auth.NewTokens: %v", err)
	}
	objects := &memObjects{objects: map[string][]byte{}}

	accounts := service.NewAccountService(db.Users(), tokens)
	authH := NewAuth(accounts, false)
	categories := NewCategories(service.NewCategoryService(db.Categories(), policy), false)
	posts := NewPosts(service.NewPostService(db.Posts(), db.Categories(), policy), false)
	comments := NewComments(service.NewCommentService(db.Comments(), db.Posts()), false)
	uploads := NewUploads(service.NewUploadService(objects, 1024), false)

	r := chi.NewRouter()
	r.Use(middleware.LoadIdentity(accounts))
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
		r.Get("/auth/logout", authH.Logout)
		r.With(middleware.RequireAuth).Get("/auth/me", authH.Me)

		r.Get("/categories", categories.List)
		r.Get("/categories/{idOrSlug}", categories.Get)
		r.With(middleware.RequireAuth).Post("/categories", categories.Create)
		r.With(middleware.RequireAuth).Put("/categories/{id}", categories.Update)
		r.With(middleware.RequireAuth).Delete("/categories/{id}", categories.Delete)

		r.Get("/posts", posts.List)
		r.Get("/posts/category/{categoryId}", posts.ListByCategory)
		r.Get("/posts/{id}", posts.Get)
		r.With(middleware.RequireAuth).Post("/posts", posts.Create)
		r.With(middleware.RequireAuth).Put("/posts/{id}", posts.Update)
		r.With(middleware.RequireAuth).Delete("/posts/{id}", posts.Delete)

		r.Get("/comments/{postId}", comments.List)
		r.With(middleware.RequireAuth).Post("/comments/{postId}", comments.Create)

		r.With(middleware.RequireAuth).Post("/uploads/images", uploads.Image)
	})

	env := &testEnv{DB: db, Tokens: tokens, Accounts: accounts, Router: r, Objects: objects}
	env.Alice = env.user(t, "Alice", "alice@example.com", models.RoleUser)
	env.Bob = env.user(t, "Bob", "bob@example.com", models.RoleUser)
	env.Admin = env.user(t, "Admin", "admin@example.com", models.RoleAdmin)
	return env
}

func (e *testEnv) user(t *testing.T, name, email string, role models.Role) *models.User {
	t.Helper()
	u, err := e.DB.Users().Create(context.Background(), name, email, "secret123", role)
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// token issues a bearer token for u.
func (e *testEnv) token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := e.Tokens.Issue(u.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// do sends a request with an optional JSON body and bearer token.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = bytes.NewBufferString(b)
		default:
			buf, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			rdr = bytes.NewReader(buf)
		}
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.Router.ServeHTTP(rr, req)
	return rr
}

// decode parses the response envelope and, when data is non-nil, its data
// member.
func decode(t *testing.T, rr *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", rr.Body.String(), err)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data %s: %v", env.Data, err)
		}
	}
	return env
}

// expectStatus fails the test when rr has a different status code.
func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}

// idOnly decodes the id of a created record.
type idOnly struct {
	ID string `json:"id"`
}

func (e *testEnv) createCategory(t *testing.T, token, name string) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/categories", map[string]string{"name": name}, token)
	expectStatus(t, rr, http.StatusCreated)
	var c idOnly
	decode(t, rr, &c)
	return c.ID
}

func (e *testEnv) createPost(t *testing.T, token, title string, categories ...string) string {
	t.Helper()
	body := map[string]any{"title": title, "content": "Content of " + title, "categories": categories}
	rr := e.do(t, http.MethodPost, "/api/posts", body, token)
	expectStatus(t, rr, http.StatusCreated)
	var p idOnly
	decode(t, rr, &p)
	return p.ID
}
