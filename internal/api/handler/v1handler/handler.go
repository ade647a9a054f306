// Package v1handler implements the v1 HTTP API: webhook event ingestion and
// event inspection endpoints.
package v1handler

import (
	"encoding/json"
	"net/http"

	"bookverse/internal/events"
	"bookverse/pkg/logger"
	"bookverse/pkg/serrors"

	"go.uber.org/zap"
)

// DefaultLimit is the page size used when a list request does not specify one.
const DefaultLimit = 20

// Deps groups the dependencies of the v1 handlers.
type Deps struct {
	// Events records and queries webhook events.
	Events events.Events
}

// Handler serves the v1 API routes.
type Handler struct {
	deps Deps
	mux  *http.ServeMux
}

// Ensure Handler implements http.Handler.
var _ http.Handler = (*Handler)(nil)

// New wires the v1 routes. All routes require authentication via the provided
// security handler.
func New(deps Deps, sec *SecHandler) *Handler {
	h := &Handler{deps: deps}

	mux := http.NewServeMux()
	mux.Handle("POST /v1/events", sec.Wrap(http.HandlerFunc(h.createEvent)))
	mux.Handle("GET /v1/events", sec.Wrap(http.HandlerFunc(h.listEvents)))
	mux.Handle("GET /v1/events/{id}", sec.Wrap(http.HandlerFunc(h.getEvent)))
	mux.Handle("DELETE /v1/events/{id}", sec.Wrap(http.HandlerFunc(h.deleteEvent)))
	h.mux = mux

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// errorResponse is the JSON error body returned for all failed requests.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error to an HTTP status via its semantic kind. Internal
// errors are logged and their details hidden from the response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := serrors.HTTPStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed", zap.Error(err))
		msg = "internal error"
	}

	writeJSON(w, status, errorResponse{Error: msg})
}
