package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkpost/internal/middleware"
	"inkpost/internal/response"
	"inkpost/internal/service"
)

// Comments groups the comment HTTP handlers.
type Comments struct {
	errorWriter
	comments *service.CommentService
}

// NewComments creates a new Comments handler group.
func NewComments(comments *service.CommentService, debug bool) *Comments {
	return &Comments{errorWriter: errorWriter{debug: debug}, comments: comments}
}

// List handles GET /api/comments/{postId}.
func (h *Comments) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.comments.ListByPost(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, list, response.WithCount(len(list)))
}

// Create handles POST /api/comments/{postId}.
func (h *Comments) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CommentInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.comments.Create(r.Context(), middleware.IdentityFromCtx(r.Context()), chi.URLParam(r, "postId"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, c)
}
