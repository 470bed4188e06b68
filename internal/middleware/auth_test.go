package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"inkpost/internal/apperr"
	"inkpost/internal/models"
)

// stubAuthenticator accepts a single token and rejects everything else.
type stubAuthenticator struct {
	token    string
	identity *models.Identity
	err      error
	calls    int
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*models.Identity, error) {
	s.calls++
	if token != s.token {
		if s.err != nil {
			return nil, s.err
		}
		return nil, apperr.Unauthenticatedf("not authorized to access this route")
	}
	return s.identity, nil
}

// okHandler is a simple handler that records the identity it saw.
func okHandler() (http.Handler, *bool, **models.Identity) {
	var called bool
	var seen *models.Identity
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = IdentityFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return h, &called, &seen
}

func TestLoadIdentity(t *testing.T) {
	identity := &models.Identity{UserID: uuid.New(), Role: models.RoleUser}

	tests := []struct {
		name         string
		header       string
		wantStatus   int
		wantCalled   bool
		wantIdentity bool
		wantAuthCall bool
	}{
		{"no header is anonymous", "", http.StatusOK, true, false, false},
		{"valid bearer token", "Bearer good", http.StatusOK, true, true, true},
		{"scheme is case-insensitive", "bearer good", http.StatusOK, true, true, true},
		{"wrong scheme is anonymous", "Basic Zm9vOmJhcg==", http.StatusOK, true, false, false},
		{"missing token is anonymous", "Bearer ", http.StatusOK, true, false, false},
		{"bad token is anonymous", "Bearer nope", http.StatusOK, true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &stubAuthenticator{token: "good", identity: identity}
			next, called, seen := okHandler()

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			LoadIdentity(auth)(next).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if *called != tt.wantCalled {
				t.Errorf("next called: got %v, want %v", *called, tt.wantCalled)
			}
			if (*seen != nil) != tt.wantIdentity {
				t.Errorf("identity present: got %v, want %v", *seen != nil, tt.wantIdentity)
			}
			if (auth.calls > 0) != tt.wantAuthCall {
				t.Errorf("authenticator called: got %d calls", auth.calls)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	t.Run("rejects anonymous request", func(t *testing.T) {
		next, called, _ := okHandler()
		req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
		rr := httptest.NewRecorder()

		RequireAuth(next).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
		if *called {
			t.Error("next handler should not have been called")
		}
	})

	t.Run("passes identified request", func(t *testing.T) {
		next, called, seen := okHandler()
		identity := &models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}
		req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
		req = req.WithContext(context.WithValue(req.Context(), IdentityKey, identity))
		rr := httptest.NewRecorder()

		RequireAuth(next).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
		if !*called {
			t.Error("next handler should have been called")
		}
		if *seen != identity {
			t.Error("identity should be passed through unchanged")
		}
	})
}

func TestRequireAuthAfterLoadIdentity(t *testing.T) {
	identity := &models.Identity{UserID: uuid.New(), Role: models.RoleUser}
	expired := apperr.Unauthenticatedf("token has expired")

	tests := []struct {
		name       string
		header     string
		authErr    error
		wantStatus int
		wantError  string
	}{
		{"valid token", "Bearer good", nil, http.StatusOK, ""},
		{"no header", "", nil, http.StatusUnauthorized, "not authorized to access this route"},
		{"wrong scheme", "Basic Zm9vOmJhcg==", nil, http.StatusUnauthorized, "not authorized to access this route"},
		{"rejected token keeps its reason", "Bearer stale", expired, http.StatusUnauthorized, "token has expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &stubAuthenticator{token: "good", identity: identity, err: tt.authErr}
			next, called, _ := okHandler()

			req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			LoadIdentity(auth)(RequireAuth(next)).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if *called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("next called: got %v", *called)
			}
			if tt.wantError != "" && !strings.Contains(rr.Body.String(), tt.wantError) {
				t.Errorf("body: got %q, want error %q", rr.Body.String(), tt.wantError)
			}
		})
	}
}

func TestIdentityFromCtx(t *testing.T) {
	if got := IdentityFromCtx(context.Background()); got != nil {
		t.Errorf("expected nil identity, got %+v", got)
	}
	if got := IdentityFromCtx(context.WithValue(context.Background(), IdentityKey, "wrong type")); got != nil {
		t.Errorf("expected nil for wrong type, got %+v", got)
	}
}
