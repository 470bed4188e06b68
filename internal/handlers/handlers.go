// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the inkpost API.
// Handlers are grouped by resource (auth, categories, posts, comments,
// uploads, health) and receive their dependencies through the handler
// struct. They decode input, call a service and write the JSON envelope;
// business rules live in the service package.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"inkpost/internal/apperr"
	"inkpost/internal/response"
)

// maxBodyBytes bounds a JSON request body.
const maxBodyBytes = 1 << 20

// errorWriter writes failures as error envelopes. Internal error detail is
// only exposed when debug is set.
type errorWriter struct {
	debug bool
}

func (e errorWriter) fail(w http.ResponseWriter, r *http.Request, err error) {
	response.Error(w, r, err, e.debug)
}

// decodeJSON reads a single JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperr.Wrap(apperr.BadRequest, err, "request body is too large")
		case errors.Is(err, io.EOF):
			return apperr.BadRequestf("request body is required")
		default:
			return apperr.Wrap(apperr.BadRequest, err, "invalid JSON body")
		}
	}
	return nil
}
