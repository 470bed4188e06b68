// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/http"

	"inkpost/internal/apperr"
	"inkpost/internal/middleware"
	"inkpost/internal/response"
	"inkpost/internal/service"
)

// Uploads groups the featured-image upload handler.
type Uploads struct {
	errorWriter
	uploads *service.UploadService
}

// NewUploads creates a new Uploads handler group. uploads may be nil if
// object storage is not configured.
func NewUploads(uploads *service.UploadService, debug bool) *Uploads {
	return &Uploads{errorWriter: errorWriter{debug: debug}, uploads: uploads}
}

// Image handles POST /api/uploads/images with a multipart "file" field.
func (h *Uploads) Image(w http.ResponseWriter, r *http.Request) {
	if h.uploads == nil {
		response.Fail(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}

	maxBytes := h.uploads.MaxBytes()

	// Leave room for the multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		h.fail(w, r, apperr.Wrap(apperr.BadRequest, err,
			fmt.Sprintf("please upload an image less than %d bytes", maxBytes)))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, apperr.Wrap(apperr.BadRequest, err, "please upload a file"))
		return
	}
	defer file.Close()

	res, err := h.uploads.UploadImage(r.Context(), middleware.IdentityFromCtx(r.Context()), file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, res)
}
