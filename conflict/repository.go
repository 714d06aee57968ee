package conflict

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested conflict does not exist.
var ErrNotFound = errors.New("conflict: not found")

// Repository handles conflict persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create opens a case inside the caller's transaction so the conflict is
// never visible without the review that spawned it.
func (r *Repository) Create(ctx context.Context, tx pgx.Tx, params CreateParams) (Record, error) {
	const insertSQL = `
		INSERT INTO conflicts (review_id, event_id, complainant_club_id, respondent_club_id, status, priority)
		VALUES ($1, $2, $3, $4, 'open', $5)
		RETURNING id, review_id, event_id, complainant_club_id, respondent_club_id, status::text, priority::text, created_at
	`

	rec, err := scanRecord(tx.QueryRow(ctx, insertSQL,
		params.ReviewID,
		params.EventID,
		params.ComplainantClubID,
		params.RespondentClubID,
		params.Priority,
	))
	if err != nil {
		return Record{}, fmt.Errorf("conflict: create: %w", err)
	}
	return rec, nil
}

// GetByReviewID fetches the case opened for a review, if any.
func (r *Repository) GetByReviewID(ctx context.Context, reviewID string) (Record, error) {
	const query = `
		SELECT id, review_id, event_id, complainant_club_id, respondent_club_id, status::text, priority::text, created_at
		FROM conflicts
		WHERE review_id = $1
	`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, reviewID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("conflict: get by review: %w", err)
	}
	return rec, nil
}

// ListOpenByRespondent returns open cases against a club, newest first.
func (r *Repository) ListOpenByRespondent(ctx context.Context, respondentClubID string) ([]Record, error) {
	const query = `
		SELECT id, review_id, event_id, complainant_club_id, respondent_club_id, status::text, priority::text, created_at
		FROM conflicts
		WHERE respondent_club_id = $1 AND status = 'open'
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, respondentClubID)
	if err != nil {
		return nil, fmt.Errorf("conflict: list open: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, 8)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("conflict: scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conflict: iterate: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	return rec, row.Scan(
		&rec.ID,
		&rec.ReviewID,
		&rec.EventID,
		&rec.ComplainantClubID,
		&rec.RespondentClubID,
		&rec.Status,
		&rec.Priority,
		&rec.CreatedAt,
	)
}
