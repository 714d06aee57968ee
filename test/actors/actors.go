package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"clubflow/review"
	"clubflow/token"
)

// SecretBag hands freshly issued secrets to submitters and keeps the spent
// ones around so replayers can try to double-spend them.
type SecretBag struct {
	mu    sync.Mutex
	live  []string
	spent []string
}

func (b *SecretBag) Add(secret string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.live = append(b.live, secret)
}

// TakeLive removes and returns a random live secret.
func (b *SecretBag) TakeLive() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.live) == 0 {
		return "", false
	}
	i := rand.Intn(len(b.live))
	secret := b.live[i]
	b.live[i] = b.live[len(b.live)-1]
	b.live = b.live[:len(b.live)-1]
	return secret, true
}

// MarkSpent records a consumed secret for later replay attempts.
func (b *SecretBag) MarkSpent(secret string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.spent = append(b.spent, secret)
}

// RandomSpent returns a random consumed secret without removing it.
func (b *SecretBag) RandomSpent() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.spent) == 0 {
		return "", false
	}
	return b.spent[rand.Intn(len(b.spent))], true
}

// BagNotifier implements token.Notifier by dropping every minted secret into
// the bag instead of delivering mail.
type BagNotifier struct {
	Bag *SecretBag
}

func (n *BagNotifier) Send(_ context.Context, _ string, inv token.Invitation) error {
	n.Bag.Add(inv.Secret)
	return nil
}

// IssuerLoop re-runs the daily issuance batch so the pool of live tokens
// refills as submitters drain it. The overlap between loops doubles as an
// idempotency probe: two runs must never mint duplicate live tokens.
func IssuerLoop(ctx context.Context, iss *token.Issuer, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		if _, err := iss.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("issuer run: %w", err)
		}
		time.Sleep(time.Duration(100+rand.Intn(150)) * time.Millisecond)
	}
}

// Submitter drains secrets from the bag and submits reviews across the full
// rating range. Losing a redemption race to another submitter is expected
// under contention; anything else fails the run.
func Submitter(ctx context.Context, rec *review.Recorder, bag *SecretBag, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		secret, ok := bag.TakeLive()
		if !ok {
			time.Sleep(50 * time.Millisecond)
			continue
		}

		rating := 1 + rand.Intn(5)
		req := review.SubmitRequest{Token: secret, Rating: rating}
		switch {
		case rating <= 2:
			req.Complaint = fmt.Sprintf("referees were %d minutes late", 5+rand.Intn(55))
		case rating == 3:
			req.ImprovementSuggestion = "confirm pitch availability the day before"
		default:
			req.Content = "well organized, the guests felt welcome"
		}

		_, err := rec.Submit(ctx, req)
		switch {
		case err == nil:
			bag.MarkSpent(secret)
		case errors.Is(err, token.ErrAlreadyUsed), errors.Is(err, token.ErrExpired):
			// lost the race, the secret is spent either way
			bag.MarkSpent(secret)
		default:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("submitter: %w", err)
		}
		time.Sleep(time.Duration(10+rand.Intn(30)) * time.Millisecond)
	}
}

// Replayer re-submits consumed secrets. An accepted replay is a double spend
// and fails the run immediately.
func Replayer(ctx context.Context, rec *review.Recorder, bag *SecretBag, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		secret, ok := bag.RandomSpent()
		if !ok {
			time.Sleep(50 * time.Millisecond)
			continue
		}

		_, err := rec.Submit(ctx, review.SubmitRequest{Token: secret, Rating: 5, Content: "replayed submission"})
		switch {
		case err == nil:
			return fmt.Errorf("replayer: consumed secret accepted a second time")
		case errors.Is(err, token.ErrAlreadyUsed):
			// expected
		default:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("replayer: unexpected error: %w", err)
		}
		time.Sleep(time.Duration(40+rand.Intn(60)) * time.Millisecond)
	}
}

// Lister hammers the read path with elevated scope while writers churn, so
// listing joins run against every intermediate state.
func Lister(ctx context.Context, q *review.Query, clubIDs []string, stop <-chan struct{}) error {
	scope := review.Scope{Elevated: true}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		filters := review.Filters{}
		if len(clubIDs) > 0 && rand.Intn(2) == 0 {
			filters.TargetClubID = clubIDs[rand.Intn(len(clubIDs))]
		}
		if rand.Intn(3) == 0 {
			isConflict := rand.Intn(2) == 0
			filters.IsConflict = &isConflict
		}

		if _, err := q.List(ctx, scope, filters); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("lister: %w", err)
		}
		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}
