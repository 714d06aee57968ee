package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"clubflow/conflict"
	"clubflow/token"
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TokenStore is the slice of token persistence the recorder consumes.
type TokenStore interface {
	GetByHashForUpdate(ctx context.Context, tx pgx.Tx, secretHash string) (token.Token, error)
	Consume(ctx context.Context, tx pgx.Tx, tokenID string) error
}

// ReviewWriter records the review row itself.
type ReviewWriter interface {
	Insert(ctx context.Context, tx pgx.Tx, params InsertParams) (Review, error)
}

// ConflictWriter opens the escalated case for low-rated reviews.
type ConflictWriter interface {
	Create(ctx context.Context, tx pgx.Tx, params conflict.CreateParams) (conflict.Record, error)
}

// Recorder validates a submitted (secret, rating, narrative) tuple and, when
// valid, records exactly one outcome: the review, the consumed token, and the
// conditional conflict, all in one transaction.
type Recorder struct {
	pool        TxBeginner
	tokens      TokenStore
	reviews     ReviewWriter
	conflicts   ConflictWriter
	logger      *slog.Logger
	idGenerator func() string
	now         func() time.Time
}

// NewRecorder wires a Recorder with production defaults.
func NewRecorder(pool TxBeginner, tokens TokenStore, reviews ReviewWriter, conflicts ConflictWriter, logger *slog.Logger) *Recorder {
	return &Recorder{
		pool:        pool,
		tokens:      tokens,
		reviews:     reviews,
		conflicts:   conflicts,
		logger:      logger,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// WithIDGenerator overrides review id generation, for tests.
func (r *Recorder) WithIDGenerator(gen func() string) *Recorder {
	r.idGenerator = gen
	return r
}

// Submit resolves the secret to its token and records the review. Failure
// modes, in order: token.ErrNotFound, token.ErrAlreadyUsed, token.ErrExpired,
// then *ValidationError for a rating-tier content mismatch.
func (r *Recorder) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if req.Token == "" {
		return SubmitResult{}, &ValidationError{Field: "token", Message: "required"}
	}
	if req.Rating < 1 || req.Rating > 5 {
		return SubmitResult{}, &ValidationError{Field: "rating", Message: "must be between 1 and 5"}
	}
	for field, value := range map[string]string{
		"content":               req.Content,
		"complaint":             req.Complaint,
		"improvementSuggestion": req.ImprovementSuggestion,
	} {
		if len(value) > maxNarrativeLen {
			return SubmitResult{}, &ValidationError{Field: field, Message: fmt.Sprintf("longer than %d characters", maxNarrativeLen)}
		}
	}

	secretHash := token.HashSecret(req.Token)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("review: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tok, err := r.tokens.GetByHashForUpdate(ctx, tx, secretHash)
	if err != nil {
		return SubmitResult{}, err
	}
	if tok.Used {
		return SubmitResult{}, token.ErrAlreadyUsed
	}
	if r.now().After(tok.ExpiresAt) {
		return SubmitResult{}, token.ErrExpired
	}

	narrative, err := narrativeForRating(req.Rating, req.Content, req.Complaint, req.ImprovementSuggestion)
	if err != nil {
		return SubmitResult{}, err
	}

	isConflict := req.Rating <= conflictThreshold
	status := StatusPending
	if isConflict {
		status = StatusConflictOpen
	}

	rev, err := r.reviews.Insert(ctx, tx, InsertParams{
		ID:             r.idGenerator(),
		TokenID:        tok.ID,
		EventID:        tok.EventID,
		ReviewerClubID: tok.IssuerClubID,
		TargetClubID:   tok.TargetClubID,
		Rating:         req.Rating,
		Narrative:      narrative,
		Status:         status,
		IsConflict:     isConflict,
	})
	if err != nil {
		return SubmitResult{}, err
	}

	if err := r.tokens.Consume(ctx, tx, tok.ID); err != nil {
		return SubmitResult{}, err
	}

	if isConflict {
		priority := conflict.PriorityMedium
		if req.Rating <= highPriorityThreshold {
			priority = conflict.PriorityHigh
		}
		if _, err := r.conflicts.Create(ctx, tx, conflict.CreateParams{
			ReviewID:          rev.ID,
			EventID:           tok.EventID,
			ComplainantClubID: tok.IssuerClubID,
			RespondentClubID:  tok.TargetClubID,
			Priority:          priority,
		}); err != nil {
			return SubmitResult{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return SubmitResult{}, fmt.Errorf("review: commit tx: %w", err)
	}

	r.logger.InfoContext(ctx, "review recorded",
		"review_id", rev.ID,
		"event_id", tok.EventID,
		"rating", req.Rating,
		"conflict", isConflict,
	)

	message := msgThanks
	if isConflict {
		message = msgConflict
	}
	return SubmitResult{
		ReviewID:   rev.ID,
		IsConflict: isConflict,
		Message:    message,
	}, nil
}
