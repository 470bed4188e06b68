package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkpost/internal/middleware"
	"inkpost/internal/response"
	"inkpost/internal/service"
)

// Categories groups the category HTTP handlers.
type Categories struct {
	errorWriter
	categories *service.CategoryService
}

// NewCategories creates a new Categories handler group.
func NewCategories(categories *service.CategoryService, debug bool) *Categories {
	return &Categories{errorWriter: errorWriter{debug: debug}, categories: categories}
}

// List handles GET /api/categories.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, list, response.WithCount(len(list)))
}

// Get handles GET /api/categories/{idOrSlug}.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.Get(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, c)
}

// Create handles POST /api/categories.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.categories.Create(r.Context(), middleware.IdentityFromCtx(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, c)
}

// Update handles PUT /api/categories/{id}.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	var patch service.CategoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.categories.Update(r.Context(), middleware.IdentityFromCtx(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, c)
}

// Delete handles DELETE /api/categories/{id}.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.categories.Delete(r.Context(), middleware.IdentityFromCtx(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, struct{}{})
}
