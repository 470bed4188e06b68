// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"inkpost/internal/apperr"
	"inkpost/internal/models"
	"inkpost/internal/response"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// IdentityKey is the context key for the authenticated caller.
	IdentityKey contextKey = "identity"

	// authErrorKey holds the reason a presented token was not accepted.
	authErrorKey contextKey = "auth_error"
)

// Authenticator resolves a bearer token to the caller it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Identity, error)
}

// LoadIdentity verifies the bearer token, if any, and stores the caller in
// the request context. Downstream handlers can access it via
// IdentityFromCtx(). A missing or unusable token leaves the request
// anonymous; the rejection reason is kept for RequireAuth, so public routes
// keep working for clients that still send an expired token.
func LoadIdentity(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				next.ServeHTTP(w, withAuthError(r, apperr.Unauthenticatedf("not authorized to access this route")))
				return
			}

			identity, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if apperr.KindOf(err) != apperr.Unauthenticated {
					log.Warn().Err(err).Str("path", r.URL.Path).Msg("token lookup failed")
				}
				next.ServeHTTP(w, withAuthError(r, err))
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func withAuthError(r *http.Request, err error) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), authErrorKey, err))
}

// RequireAuth rejects anonymous requests with 401, or with the error that
// made LoadIdentity drop the presented token.
// Must be applied after LoadIdentity in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromCtx(r.Context()) == nil {
			if err, ok := r.Context().Value(authErrorKey).(error); ok {
				response.Error(w, r, err, false)
				return
			}
			response.Fail(w, http.StatusUnauthorized, "not authorized to access this route")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// IdentityFromCtx extracts the caller from the request context.
// Returns nil if the request is anonymous.
func IdentityFromCtx(ctx context.Context) *models.Identity {
	identity, _ := ctx.Value(IdentityKey).(*models.Identity)
	return identity
}

// bearerToken returns the token of a "Bearer <token>" header value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
