package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"clubflow/event"
)

// EventService exposes event directory reads.
type EventService interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	List(ctx context.Context, filters event.Filters) (event.ListResult, error)
}

// EventHandler wires the event endpoints to the event service.
type EventHandler struct {
	service EventService
	logger  *slog.Logger
}

// NewEventHandler constructs the handler with its dependencies.
func NewEventHandler(service EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{service: service, logger: logger}
}

type eventResponse struct {
	ID         string  `json:"id"`
	HostClubID string  `json:"hostClubId"`
	Title      string  `json:"title"`
	StartsAt   string  `json:"startsAt"`
	EndsAt     *string `json:"endsAt,omitempty"`
	CreatedAt  string  `json:"createdAt"`
}

type eventListResponse struct {
	Items []eventResponse `json:"items"`
	Total int             `json:"total"`
}

// HandleGet handles GET /api/events/{id}.
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ev, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(ev))
}

// HandleList handles GET /api/events.
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := event.Filters{HostClubID: q.Get("hostClubId")}
	if raw := q.Get("page"); raw != "" {
		filters.Page, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("pageSize"); raw != "" {
		filters.PageSize, _ = strconv.Atoi(raw)
	}

	result, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "event listing failed", "error", err)
		writeError(w, err)
		return
	}

	out := eventListResponse{Items: make([]eventResponse, 0, len(result.Items)), Total: result.Total}
	for _, ev := range result.Items {
		out.Items = append(out.Items, toEventResponse(ev))
	}
	writeJSON(w, http.StatusOK, out)
}

func toEventResponse(ev event.Event) eventResponse {
	resp := eventResponse{
		ID:         ev.ID,
		HostClubID: ev.HostClubID,
		Title:      ev.Title,
		StartsAt:   ev.StartsAt.UTC().Format(time.RFC3339),
		CreatedAt:  ev.CreatedAt.UTC().Format(time.RFC3339),
	}
	if ev.EndsAt != nil {
		endsAt := ev.EndsAt.UTC().Format(time.RFC3339)
		resp.EndsAt = &endsAt
	}
	return resp
}
