package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"clubflow/conflict"
	"clubflow/token"
)

// InsertParams contains write parameters for recording a review.
type InsertParams struct {
	ID             string
	TokenID        string
	EventID        string
	ReviewerClubID string
	TargetClubID   string
	Rating         int
	Narrative      Narrative
	Status         Status
	IsConflict     bool
}

// Filters narrows review listings.
type Filters struct {
	TargetClubID string
	Status       Status
	IsConflict   *bool
}

// ConflictSummary is the linked case data a listing row carries.
type ConflictSummary struct {
	ID       string
	Status   conflict.Status
	Priority conflict.Priority
}

// Item is one review listing row with the display fields the caller needs.
type Item struct {
	Review       Review
	EventTitle   string
	ReviewerClub string
	TargetClub   string
	Conflict     *ConflictSummary
}

// PGRepository implements review persistence backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed review repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert records a review inside the caller's transaction. The unique
// constraint on token_id backstops concurrent submitters: the loser surfaces
// token.ErrAlreadyUsed no matter how it interleaved.
func (r *PGRepository) Insert(ctx context.Context, tx pgx.Tx, params InsertParams) (Review, error) {
	var content, complaint, suggestion *string
	switch n := params.Narrative.(type) {
	case Complaint:
		complaint = &n.Text
	case Suggestion:
		suggestion = &n.Text
	case Praise:
		content = &n.Text
	default:
		return Review{}, fmt.Errorf("review: insert without narrative")
	}

	const insertSQL = `
		INSERT INTO reviews (id, token_id, event_id, reviewer_club_id, target_club_id, rating,
			content, complaint, improvement_suggestion, status, is_conflict)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, token_id, event_id, reviewer_club_id, target_club_id, rating,
			content, complaint, improvement_suggestion, status::text, is_conflict, created_at
	`

	rev, err := scanReview(tx.QueryRow(ctx, insertSQL,
		params.ID,
		params.TokenID,
		params.EventID,
		params.ReviewerClubID,
		params.TargetClubID,
		params.Rating,
		content,
		complaint,
		suggestion,
		params.Status,
		params.IsConflict,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Review{}, token.ErrAlreadyUsed
		}
		return Review{}, fmt.Errorf("review: insert: %w", err)
	}

	return rev, nil
}

// List returns reviews matching the filters, newest first, each joined with
// its event title, club names, and linked conflict when present.
func (r *PGRepository) List(ctx context.Context, filters Filters) ([]Item, error) {
	base := `
		SELECT rv.id, rv.token_id, rv.event_id, rv.reviewer_club_id, rv.target_club_id, rv.rating,
		       rv.content, rv.complaint, rv.improvement_suggestion, rv.status::text, rv.is_conflict, rv.created_at,
		       e.title, reviewer.name, target.name,
		       c.id, c.status::text, c.priority::text
		FROM reviews rv
		JOIN events e ON e.id = rv.event_id
		JOIN clubs reviewer ON reviewer.id = rv.reviewer_club_id
		JOIN clubs target ON target.id = rv.target_club_id
		LEFT JOIN conflicts c ON c.review_id = rv.id
	`
	where := []string{"1=1"}
	args := []any{}

	if filters.TargetClubID != "" {
		where = append(where, fmt.Sprintf("rv.target_club_id=$%d", len(args)+1))
		args = append(args, filters.TargetClubID)
	}
	if filters.Status != "" {
		where = append(where, fmt.Sprintf("rv.status=$%d::review_status", len(args)+1))
		args = append(args, filters.Status)
	}
	if filters.IsConflict != nil {
		where = append(where, fmt.Sprintf("rv.is_conflict=$%d", len(args)+1))
		args = append(args, *filters.IsConflict)
	}

	query := base + " WHERE " + strings.Join(where, " AND ") + " ORDER BY rv.created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("review: list: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			item         Item
			content      *string
			complaint    *string
			suggestion   *string
			conflictID   *string
			conflictStat *string
			conflictPrio *string
		)
		err := rows.Scan(
			&item.Review.ID,
			&item.Review.TokenID,
			&item.Review.EventID,
			&item.Review.ReviewerClubID,
			&item.Review.TargetClubID,
			&item.Review.Rating,
			&content,
			&complaint,
			&suggestion,
			&item.Review.Status,
			&item.Review.IsConflict,
			&item.Review.CreatedAt,
			&item.EventTitle,
			&item.ReviewerClub,
			&item.TargetClub,
			&conflictID,
			&conflictStat,
			&conflictPrio,
		)
		if err != nil {
			return nil, fmt.Errorf("review: scan item: %w", err)
		}
		item.Review.Content = content
		item.Review.Complaint = complaint
		item.Review.ImprovementSuggestion = suggestion
		if conflictID != nil {
			item.Conflict = &ConflictSummary{
				ID:       *conflictID,
				Status:   conflict.Status(*conflictStat),
				Priority: conflict.Priority(*conflictPrio),
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("review: iterate: %w", err)
	}

	return items, nil
}

func scanReview(row pgx.Row) (Review, error) {
	var (
		rev        Review
		content    *string
		complaint  *string
		suggestion *string
	)
	err := row.Scan(
		&rev.ID,
		&rev.TokenID,
		&rev.EventID,
		&rev.ReviewerClubID,
		&rev.TargetClubID,
		&rev.Rating,
		&content,
		&complaint,
		&suggestion,
		&rev.Status,
		&rev.IsConflict,
		&rev.CreatedAt,
	)
	if err != nil {
		return Review{}, err
	}
	rev.Content = content
	rev.Complaint = complaint
	rev.ImprovementSuggestion = suggestion
	return rev, nil
}
