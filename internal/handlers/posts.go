// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkpost/internal/middleware"
	"inkpost/internal/response"
	"inkpost/internal/service"
)

// Posts groups the post HTTP handlers.
type Posts struct {
	errorWriter
	posts *service.PostService
}

// NewPosts creates a new Posts handler group.
func NewPosts(posts *service.PostService, debug bool) *Posts {
	return &Posts{errorWriter: errorWriter{debug: debug}, posts: posts}
}

// List handles GET /api/posts?page=&limit=&sort=&author=&category=.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.posts.List(r.Context(), service.ListParams{
		Page:     q.Get("page"),
		Limit:    q.Get("limit"),
		Sort:     q.Get("sort"),
		Author:   q.Get("author"),
		Category: q.Get("category"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, page.Posts,
		response.WithCount(len(page.Posts)),
		response.WithPagination(page.Pagination),
	)
}

// ListByCategory handles GET /api/posts/category/{categoryId}.
func (h *Posts) ListByCategory(w http.ResponseWriter, r *http.Request) {
	posts, name, err := h.posts.ListByCategory(r.Context(), chi.URLParam(r, "categoryId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, posts,
		response.WithCount(len(posts)),
		response.WithCategory(name),
	)
}

// Get handles GET /api/posts/{id}.
func (h *Posts) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, p)
}

// Create handles POST /api/posts.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	var in service.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.posts.Create(r.Context(), middleware.IdentityFromCtx(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, p)
}

// Update handles PUT /api/posts/{id}.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	var patch service.PostPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.posts.Update(r.Context(), middleware.IdentityFromCtx(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, p)
}

// Delete handles DELETE /api/posts/{id}.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.posts.Delete(r.Context(), middleware.IdentityFromCtx(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, struct{}{})
}
