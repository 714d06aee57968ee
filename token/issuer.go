package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"clubflow/club"
	"clubflow/event"
)

// DefaultValidity is how long a freshly minted token stays redeemable.
const DefaultValidity = 7 * 24 * time.Hour

// notifyConcurrency bounds the notification fan-out per issuer run.
const notifyConcurrency = 4

// EventSource yields the events whose feedback window just opened.
type EventSource interface {
	FindConcludedBetween(ctx context.Context, from, to time.Time) ([]event.ConcludedEvent, error)
}

// Store abstracts token persistence for the issuer.
type Store interface {
	ExistsLive(ctx context.Context, eventID, issuerClubID, targetClubID string) (bool, error)
	Create(ctx context.Context, params CreateParams) (Token, error)
}

// AdminDirectory resolves the notification recipients of a club.
type AdminDirectory interface {
	AdminsOf(ctx context.Context, clubID string) ([]club.Admin, error)
}

// Invitation is the template data handed to the notifier alongside the raw
// secret. The secret exists only here and in the recipient's inbox.
type Invitation struct {
	RecipientName string
	EventID       string
	AboutClubID   string
	Secret        string
	ExpiresAt     time.Time
}

// Notifier delivers an invitation to a single recipient. Implementations are
// external; failures are isolated per recipient and never abort issuance.
type Notifier interface {
	Send(ctx context.Context, email string, inv Invitation) error
}

// Summary reports what a single issuer run accomplished.
type Summary struct {
	EventsProcessed   int      `json:"activitiesProcessed"`
	TokensIssued      int      `json:"credentialsIssued"`
	NotificationsSent int      `json:"notificationsSent"`
	Errors            []string `json:"errors"`
}

// Issuer mints the directed feedback tokens for events that concluded in the
// previous day. It is designed to be re-run safely: an existence check plus
// the storage-level live-pair uniqueness guarantee no directed pair ever
// holds two live tokens.
type Issuer struct {
	events      EventSource
	store       Store
	admins      AdminDirectory
	notifier    Notifier
	logger      *slog.Logger
	validity    time.Duration
	idGenerator func() string
	now         func() time.Time
}

// NewIssuer wires an Issuer with production defaults.
func NewIssuer(events EventSource, store Store, admins AdminDirectory, notifier Notifier, logger *slog.Logger) *Issuer {
	return &Issuer{
		events:      events,
		store:       store,
		admins:      admins,
		notifier:    notifier,
		logger:      logger,
		validity:    DefaultValidity,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// WithIDGenerator overrides token id generation, for tests.
func (i *Issuer) WithIDGenerator(gen func() string) *Issuer {
	i.idGenerator = gen
	return i
}

// WithValidity overrides the token validity horizon.
func (i *Issuer) WithValidity(d time.Duration) *Issuer {
	i.validity = d
	return i
}

// Run processes every event whose end boundary fell within yesterday and
// issues the two directed tokens per (host, guest) pairing. Notification
// failures are collected in the summary, never returned as the run error:
// the token row, not the delivery, is the source of truth.
func (i *Issuer) Run(ctx context.Context) (Summary, error) {
	now := i.now()
	windowEnd := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	windowStart := windowEnd.AddDate(0, 0, -1)

	events, err := i.events.FindConcludedBetween(ctx, windowStart, windowEnd)
	if err != nil {
		return Summary{}, fmt.Errorf("token: find concluded events: %w", err)
	}

	summary := Summary{Errors: []string{}}
	for _, ev := range events {
		summary.EventsProcessed++
		for _, guest := range ev.GuestClubIDs {
			if guest == ev.HostClubID {
				continue
			}
			// Each direction is issued independently so a failure on one
			// side never blocks the other.
			i.issuePair(ctx, ev.ID, ev.HostClubID, guest, &summary)
			i.issuePair(ctx, ev.ID, guest, ev.HostClubID, &summary)
		}
	}

	i.logger.InfoContext(ctx, "issuer run complete",
		"events", summary.EventsProcessed,
		"tokens_issued", summary.TokensIssued,
		"notifications_sent", summary.NotificationsSent,
		"errors", len(summary.Errors),
	)

	return summary, nil
}

func (i *Issuer) issuePair(ctx context.Context, eventID, issuerClubID, targetClubID string, summary *Summary) {
	exists, err := i.store.ExistsLive(ctx, eventID, issuerClubID, targetClubID)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("check pair %s->%s for event %s: %v", issuerClubID, targetClubID, eventID, err))
		return
	}
	if exists {
		return
	}

	secret, err := NewSecret()
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("mint secret for event %s: %v", eventID, err))
		return
	}

	tok, err := i.store.Create(ctx, CreateParams{
		ID:           i.idGenerator(),
		SecretHash:   HashSecret(secret),
		EventID:      eventID,
		IssuerClubID: issuerClubID,
		TargetClubID: targetClubID,
		ExpiresAt:    i.now().Add(i.validity),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicatePair) {
			// Lost a race against an overlapping run; the pair is covered.
			return
		}
		summary.Errors = append(summary.Errors, fmt.Sprintf("create token %s->%s for event %s: %v", issuerClubID, targetClubID, eventID, err))
		return
	}
	summary.TokensIssued++

	sent, errs := i.notifyAdmins(ctx, tok, secret)
	summary.NotificationsSent += sent
	summary.Errors = append(summary.Errors, errs...)
}

// notifyAdmins fans the invitation out to every administrator of the issuing
// club. Failures are per-recipient and reported, not fatal.
func (i *Issuer) notifyAdmins(ctx context.Context, tok Token, secret string) (int, []string) {
	admins, err := i.admins.AdminsOf(ctx, tok.IssuerClubID)
	if err != nil {
		return 0, []string{fmt.Sprintf("lookup admins of %s: %v", tok.IssuerClubID, err)}
	}

	var (
		mu   sync.Mutex
		sent int
		errs []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(notifyConcurrency)
	for _, admin := range admins {
		admin := admin
		g.Go(func() error {
			inv := Invitation{
				RecipientName: admin.Name,
				EventID:       tok.EventID,
				AboutClubID:   tok.TargetClubID,
				Secret:        secret,
				ExpiresAt:     tok.ExpiresAt,
			}
			if err := i.notifier.Send(gctx, admin.Email, inv); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Sprintf("notify %s: %v", admin.Email, err))
				mu.Unlock()
				i.logger.WarnContext(gctx, "notification failed",
					"recipient", admin.Email,
					"event_id", tok.EventID,
					"error", err,
				)
				return nil
			}
			mu.Lock()
			sent++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return sent, errs
}
