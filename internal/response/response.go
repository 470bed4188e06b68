// Package response writes the uniform JSON envelope returned by every API
// endpoint.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"inkpost/internal/apperr"
)

// Envelope is the body of every response. Optional members are omitted
// when empty.
type Envelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Count      *int   `json:"count,omitempty"`
	Pagination any    `json:"pagination,omitempty"`
	Category   string `json:"category,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Option adds an optional member to a success envelope.
type Option func(*Envelope)

// WithCount sets the number of items in data.
func WithCount(n int) Option {
	return func(e *Envelope) { e.Count = &n }
}

// WithPagination sets the pagination descriptor.
func WithPagination(p any) Option {
	return func(e *Envelope) { e.Pagination = p }
}

// WithCategory sets the category display name of a by-category listing.
func WithCategory(name string) Option {
	return func(e *Envelope) { e.Category = name }
}

// WithMessage sets an informational message.
func WithMessage(msg string) Option {
	return func(e *Envelope) { e.Message = msg }
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// Success writes a success envelope around data.
func Success(w http.ResponseWriter, status int, data any, opts ...Option) {
	env := Envelope{Success: true, Data: data}
	for _, opt := range opts {
		opt(&env)
	}
	JSON(w, status, env)
}

// Fail writes an error envelope with an explicit status and message.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Error: message})
}

// Error translates err into a status and an error envelope. Internal
// errors are logged with their cause; their detail reaches the client only
// when exposeInternal is set.
func Error(w http.ResponseWriter, r *http.Request, err error, exposeInternal bool) {
	ae := apperr.As(err)
	message := ae.Message
	if ae.Kind == apperr.Internal {
		log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request failed")
		if exposeInternal && ae.Err != nil {
			message = ae.Err.Error()
		}
	}
	Fail(w, ae.Kind.Status(), message)
}
