package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Auth       *AuthHandler
	Feedback   *FeedbackHandler
	Clubs      *ClubHandler
	Events     *EventHandler
	Verifier   TokenVerifier
	CronSecret string
	Logger     *slog.Logger
}

// NewRouter wires all public endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", deps.Auth.HandleRegister)
		r.Post("/auth/login", deps.Auth.HandleLogin)

		r.Get("/clubs", deps.Clubs.HandleList)
		r.Get("/clubs/{id}", deps.Clubs.HandleGet)

		r.Get("/events", deps.Events.HandleList)
		r.Get("/events/{id}", deps.Events.HandleGet)

		// The submission endpoint authenticates by the single-use secret in
		// the body; no session is required.
		r.Post("/feedback/reviews", deps.Feedback.HandleSubmit)

		r.Group(func(r chi.Router) {
			r.Use(RequireCronSecret(deps.CronSecret, deps.Logger))
			r.Post("/internal/feedback/issue", deps.Feedback.HandleIssue)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(deps.Verifier, deps.Logger))
			r.Get("/feedback/reviews", deps.Feedback.HandleList)
		})
	})

	return r
}
