package review

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a review record.
type Status string

const (
	StatusPending      Status = "pending"
	StatusConflictOpen Status = "conflict_open"
)

// Rating tiers. At or below the conflict threshold a review escalates into a
// conflict case; rating 1 escalates at high priority.
const (
	conflictThreshold     = 2
	highPriorityThreshold = 1
	suggestionRating      = 3
)

// maxNarrativeLen caps every narrative field.
const maxNarrativeLen = 2000

// Review mirrors the reviews table. Exactly one narrative field is populated,
// selected by rating tier.
type Review struct {
	ID                    string
	TokenID               string
	EventID               string
	ReviewerClubID        string
	TargetClubID          string
	Rating                int
	Content               *string
	Complaint             *string
	ImprovementSuggestion *string
	Status                Status
	IsConflict            bool
	CreatedAt             time.Time
}

// Narrative is the tier-selected text of a review, validated once at the
// boundary before any persistence logic runs.
type Narrative interface {
	narrative()
}

// Complaint is the required narrative for ratings at or below the conflict
// threshold.
type Complaint struct{ Text string }

// Suggestion is the required narrative for a middling rating.
type Suggestion struct{ Text string }

// Praise is the required narrative for high ratings.
type Praise struct{ Text string }

func (Complaint) narrative()  {}
func (Suggestion) narrative() {}
func (Praise) narrative()     {}

// ValidationError names the request field that failed validation, so callers
// can correct it in the same session.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("review: invalid %s: %s", e.Field, e.Message)
}

// SubmitRequest is the inbound submission payload, normalized for the service.
type SubmitRequest struct {
	Token                 string
	Rating                int
	Content               string
	Complaint             string
	ImprovementSuggestion string
}

// SubmitResult reports a successful submission.
type SubmitResult struct {
	ReviewID   string
	IsConflict bool
	Message    string
}

// Caller-facing submission messages.
const (
	msgThanks   = "Thank you for your feedback!"
	msgConflict = "Thank you. Your concern will be reviewed by the platform team."
)

// narrativeForRating validates the tier-appropriate field and folds the loose
// optionals into the closed Narrative type.
func narrativeForRating(rating int, content, complaint, suggestion string) (Narrative, error) {
	switch {
	case rating <= conflictThreshold:
		if strings.TrimSpace(complaint) == "" {
			return nil, &ValidationError{Field: "complaint", Message: fmt.Sprintf("required for rating %d", rating)}
		}
		return Complaint{Text: complaint}, nil
	case rating == suggestionRating:
		if strings.TrimSpace(suggestion) == "" {
			return nil, &ValidationError{Field: "improvementSuggestion", Message: fmt.Sprintf("required for rating %d", rating)}
		}
		return Suggestion{Text: suggestion}, nil
	default:
		if strings.TrimSpace(content) == "" {
			return nil, &ValidationError{Field: "content", Message: fmt.Sprintf("required for rating %d", rating)}
		}
		return Praise{Text: content}, nil
	}
}
