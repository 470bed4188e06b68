package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"inkpost/internal/response"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health serves the liveness probe.
type Health struct {
	db Pinger
}

// NewHealth creates a Health handler.
func NewHealth(db Pinger) *Health {
	return &Health{db: db}
}

// healthStatus is the data member of a health response.
type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Check handles GET /api/health. It responds 503 when the database does
// not answer a ping within two seconds.
func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		log.Warn().Err(err).Msg("health check: database unreachable")
		response.JSON(w, http.StatusServiceUnavailable, response.Envelope{
			Success: false,
			Data:    healthStatus{Status: "degraded", Database: "down"},
			Error:   "database unreachable",
		})
		return
	}
	response.Success(w, http.StatusOK, healthStatus{Status: "ok", Database: "up"})
}
