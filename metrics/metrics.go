package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	TokensIssued       prometheus.Counter
	ReviewsRecorded    prometheus.Counter
	ConflictsOpened    prometheus.Counter
	SubmissionFailures *prometheus.CounterVec
}

// New creates all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all metrics on the given registerer. Tests pass a fresh
// registry so repeated construction never collides.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TokensIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubflow_feedback_tokens_issued_total",
			Help: "Total number of feedback tokens minted by the issuer",
		}),
		ReviewsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubflow_reviews_recorded_total",
			Help: "Total number of successfully recorded reviews",
		}),
		ConflictsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubflow_conflicts_opened_total",
			Help: "Total number of conflict cases opened from low-rated reviews",
		}),
		SubmissionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clubflow_submission_failures_total",
			Help: "Review submissions rejected, labelled by failure kind",
		}, []string{"kind"}),
	}
}
