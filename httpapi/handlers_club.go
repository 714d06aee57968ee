package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"clubflow/club"
)

// ClubService exposes directory reads.
type ClubService interface {
	GetByID(ctx context.Context, id string) (club.Profile, error)
	List(ctx context.Context, limit int) ([]club.Profile, error)
}

// ClubHandler wires the directory endpoints to the club service.
type ClubHandler struct {
	service ClubService
	logger  *slog.Logger
}

// NewClubHandler constructs the handler with its dependencies.
func NewClubHandler(service ClubService, logger *slog.Logger) *ClubHandler {
	return &ClubHandler{service: service, logger: logger}
}

type clubResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	City      string `json:"city"`
	Verified  bool   `json:"verified"`
	CreatedAt string `json:"createdAt"`
}

// HandleGet handles GET /api/clubs/{id}.
func (h *ClubHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClubResponse(profile))
}

// HandleList handles GET /api/clubs.
func (h *ClubHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	profiles, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "club listing failed", "error", err)
		writeError(w, err)
		return
	}

	out := make([]clubResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toClubResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func toClubResponse(p club.Profile) clubResponse {
	return clubResponse{
		ID:        p.ID,
		Name:      p.Name,
		City:      p.City,
		Verified:  p.Verified,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
