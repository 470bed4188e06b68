package handlers

import (
	"net/http"

	"inkpost/internal/middleware"
	"inkpost/internal/response"
	"inkpost/internal/service"
)

// Auth groups the account HTTP handlers.
type Auth struct {
	errorWriter
	accounts *service.AccountService
}

// NewAuth creates a new Auth handler group.
func NewAuth(accounts *service.AccountService, debug bool) *Auth {
	return &Auth{errorWriter: errorWriter{debug: debug}, accounts: accounts}
}

// Register handles POST /api/auth/register.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, res)
}

// Login handles POST /api/auth/login.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, res)
}

// Me handles GET /api/auth/me.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Me(r.Context(), middleware.IdentityFromCtx(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, user)
}

// Logout handles /api/auth/logout. Tokens are stateless, so the client
// is told to discard its copy.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, struct{}{}, response.WithMessage("logged out, discard the token"))
}
