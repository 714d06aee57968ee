package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"clubflow/metrics"
	"clubflow/review"
	"clubflow/token"
)

// IssuerService triggers one issuance batch run.
type IssuerService interface {
	Run(ctx context.Context) (token.Summary, error)
}

// RecorderService records one review submission.
type RecorderService interface {
	Submit(ctx context.Context, req review.SubmitRequest) (review.SubmitResult, error)
}

// QueryService lists reviews for authorized callers.
type QueryService interface {
	List(ctx context.Context, scope review.Scope, filters review.Filters) ([]review.Item, error)
}

// FeedbackHandler wires the feedback endpoints to their domain services.
type FeedbackHandler struct {
	issuer   IssuerService
	recorder RecorderService
	query    QueryService
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewFeedbackHandler constructs the handler with its dependencies.
func NewFeedbackHandler(issuer IssuerService, recorder RecorderService, query QueryService, logger *slog.Logger, m *metrics.Metrics) *FeedbackHandler {
	return &FeedbackHandler{
		issuer:   issuer,
		recorder: recorder,
		query:    query,
		logger:   logger,
		metrics:  m,
	}
}

// HandleIssue handles POST /api/internal/feedback/issue.
func (h *FeedbackHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	summary, err := h.issuer.Run(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "issuance run failed", "error", err)
		writeError(w, err)
		return
	}

	h.metrics.TokensIssued.Add(float64(summary.TokensIssued))
	writeJSON(w, http.StatusOK, summary)
}

type submitRequest struct {
	Token                 string `json:"token"`
	Rating                int    `json:"rating"`
	Content               string `json:"content"`
	Complaint             string `json:"complaint"`
	ImprovementSuggestion string `json:"improvementSuggestion"`
}

type submitResponse struct {
	ReviewID   string `json:"reviewId"`
	IsConflict bool   `json:"isConflict"`
	Message    string `json:"message"`
}

// HandleSubmit handles POST /api/feedback/reviews.
func (h *FeedbackHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Kind: "validation_error", Message: "Request body must be valid JSON."})
		return
	}

	result, err := h.recorder.Submit(r.Context(), review.SubmitRequest{
		Token:                 req.Token,
		Rating:                req.Rating,
		Content:               req.Content,
		Complaint:             req.Complaint,
		ImprovementSuggestion: req.ImprovementSuggestion,
	})
	if err != nil {
		h.metrics.SubmissionFailures.WithLabelValues(errorKind(err)).Inc()
		if errorKind(err) == "internal" {
			h.logger.ErrorContext(r.Context(), "review submission failed", "error", err)
		}
		writeError(w, err)
		return
	}

	h.metrics.ReviewsRecorded.Inc()
	if result.IsConflict {
		h.metrics.ConflictsOpened.Inc()
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		ReviewID:   result.ReviewID,
		IsConflict: result.IsConflict,
		Message:    result.Message,
	})
}

type reviewItem struct {
	ID                    string           `json:"id"`
	EventID               string           `json:"eventId"`
	EventTitle            string           `json:"eventTitle"`
	ReviewerClubID        string           `json:"reviewerClubId"`
	ReviewerClub          string           `json:"reviewerClub"`
	TargetClubID          string           `json:"targetClubId"`
	TargetClub            string           `json:"targetClub"`
	Rating                int              `json:"rating"`
	Content               *string          `json:"content,omitempty"`
	Complaint             *string          `json:"complaint,omitempty"`
	ImprovementSuggestion *string          `json:"improvementSuggestion,omitempty"`
	Status                review.Status    `json:"status"`
	IsConflict            bool             `json:"isConflict"`
	CreatedAt             string           `json:"createdAt"`
	Conflict              *conflictSummary `json:"conflict,omitempty"`
}

type conflictSummary struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// HandleList handles GET /api/feedback/reviews.
func (h *FeedbackHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Kind: "unauthorized", Message: "Authentication required."})
		return
	}

	filters := review.Filters{
		TargetClubID: r.URL.Query().Get("targetClubId"),
		Status:       review.Status(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("isConflict"); raw != "" {
		v := raw == "true"
		filters.IsConflict = &v
	}

	scope := review.Scope{Elevated: ident.Elevated(), ClubID: ident.ClubID}
	items, err := h.query.List(r.Context(), scope, filters)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]reviewItem, 0, len(items))
	for _, item := range items {
		ri := reviewItem{
			ID:                    item.Review.ID,
			EventID:               item.Review.EventID,
			EventTitle:            item.EventTitle,
			ReviewerClubID:        item.Review.ReviewerClubID,
			ReviewerClub:          item.ReviewerClub,
			TargetClubID:          item.Review.TargetClubID,
			TargetClub:            item.TargetClub,
			Rating:                item.Review.Rating,
			Content:               item.Review.Content,
			Complaint:             item.Review.Complaint,
			ImprovementSuggestion: item.Review.ImprovementSuggestion,
			Status:                item.Review.Status,
			IsConflict:            item.Review.IsConflict,
			CreatedAt:             item.Review.CreatedAt.UTC().Format(time.RFC3339),
		}
		if item.Conflict != nil {
			ri.Conflict = &conflictSummary{
				ID:       item.Conflict.ID,
				Status:   string(item.Conflict.Status),
				Priority: string(item.Conflict.Priority),
			}
		}
		out = append(out, ri)
	}

	writeJSON(w, http.StatusOK, out)
}
