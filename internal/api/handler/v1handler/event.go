package v1handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"bookverse/pkg/domain"
	"bookverse/pkg/serrors"

	"github.com/google/uuid"
)

// createEventRequest is the payload accepted by POST /v1/events. It mirrors
// the webhook body the platform delivers.
type createEventRequest struct {
	EventType      string          `json:"event_type"`
	RepoName       string          `json:"repo_name"`
	ApplicationKey string          `json:"application_key"`
	ClientPayload  json.RawMessage `json:"client_payload"`
}

// eventList is the response body of GET /v1/events.
type eventList struct {
	Items      []domain.Event `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// createEvent records a webhook delivery and schedules it for processing.
// It responds 202 since processing happens in the background.
func (h *Handler) createEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, serrors.Wrap(serrors.ErrBadRequest, err, "invalid request body"))

		return
	}

	event, err := h.deps.Events.Ingest(r.Context(),
		domain.EventKind(req.EventType),
		req.RepoName,
		req.ApplicationKey,
		req.ClientPayload)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusAccepted, event)
}

// listEvents returns a paginated list of events filtered by kind and status.
func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := uint(DefaultLimit)
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || parsed == 0 {
			writeError(w, r, serrors.With(serrors.ErrBadRequest, "invalid limit %q", raw))

			return
		}
		limit = uint(parsed)
	}

	items, next, err := h.deps.Events.List(r.Context(),
		domain.EventKind(q.Get("kind")),
		domain.EventStatus(q.Get("status")),
		q.Get("cursor"),
		limit)
	if err != nil {
		writeError(w, r, err)

		return
	}

	if items == nil {
		items = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, eventList{Items: items, NextCursor: next})
}

func eventIDFromRequest(r *http.Request) (domain.EventID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return domain.EventID{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid event ID")
	}

	return domain.EventID(id), nil
}

// getEvent returns details of an event by ID.
func (h *Handler) getEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	event, err := h.deps.Events.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, event)
}

// deleteEvent removes an event by ID.
func (h *Handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDFromRequest(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	if err := h.deps.Events.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
