package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Oracle is a SQL query that must return zero rows on a healthy database.
type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_single_live_token_per_pair",
			SQL: `SELECT event_id, issuer_club_id, target_club_id, COUNT(*)
                  FROM feedback_tokens
                  WHERE NOT used
                  GROUP BY event_id, issuer_club_id, target_club_id
                  HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_token_single_use",
			SQL: `SELECT token_id, COUNT(*) FROM reviews
                  GROUP BY token_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O3_review_implies_consumed_token",
			SQL: `SELECT r.id FROM reviews r
                  JOIN feedback_tokens t ON t.id = r.token_id
                  WHERE NOT t.used`,
		},
		{
			Name: "O4_consumed_token_implies_review",
			SQL: `SELECT t.id FROM feedback_tokens t
                  LEFT JOIN reviews r ON r.token_id = t.id
                  WHERE t.used AND r.id IS NULL`,
		},
		{
			Name: "O5_conflict_iff_low_rating",
			SQL: `SELECT c.id::text AS detail FROM conflicts c
                  JOIN reviews r ON r.id = c.review_id
                  WHERE r.rating > 2
                  UNION ALL
                  SELECT r.id::text FROM reviews r
                  LEFT JOIN conflicts c ON c.review_id = r.id
                  WHERE r.rating <= 2 AND c.id IS NULL`,
		},
		{
			Name: "O6_narrative_matches_rating_tier",
			SQL: `SELECT id FROM reviews
                  WHERE (rating <= 2 AND (complaint IS NULL OR content IS NOT NULL OR improvement_suggestion IS NOT NULL))
                     OR (rating = 3 AND (improvement_suggestion IS NULL OR content IS NOT NULL OR complaint IS NOT NULL))
                     OR (rating >= 4 AND (content IS NULL OR complaint IS NOT NULL OR improvement_suggestion IS NOT NULL))`,
		},
		{
			Name: "O7_conflict_parties_and_priority",
			SQL: `SELECT c.id FROM conflicts c
                  JOIN reviews r ON r.id = c.review_id
                  WHERE c.complainant_club_id <> r.reviewer_club_id
                     OR c.respondent_club_id <> r.target_club_id
                     OR c.event_id <> r.event_id
                     OR (r.rating <= 1 AND c.priority <> 'high')
                     OR (r.rating = 2 AND c.priority <> 'medium')`,
		},
		{
			Name: "O8_review_status_consistency",
			SQL: `SELECT id FROM reviews
                  WHERE is_conflict <> (rating <= 2)
                     OR (is_conflict AND status <> 'conflict_open')
                     OR (NOT is_conflict AND status <> 'pending')`,
		},
		{
			Name: "O9_no_expired_redemption",
			SQL: `SELECT r.id FROM reviews r
                  JOIN feedback_tokens t ON t.id = r.token_id
                  WHERE r.created_at > t.expires_at`,
		},
		{
			Name: "O10_no_self_directed_token",
			SQL:  `SELECT id FROM feedback_tokens WHERE issuer_club_id = target_club_id`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
