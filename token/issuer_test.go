package token

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"clubflow/club"
	"clubflow/event"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssuer_RunIssuesDirectedPairs(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	source := &fakeEventSource{events: []event.ConcludedEvent{
		{ID: "event-1", HostClubID: "club-h", GuestClubIDs: []string{"club-p"}},
	}}
	store := newFakeStore()
	admins := &fakeAdminDirectory{admins: map[string][]club.Admin{
		"club-h": {{Name: "Helen Host", Email: "helen@host.club"}},
		"club-p": {{Name: "Pat Guest", Email: "pat@guest.club"}, {Name: "Quinn Guest", Email: "quinn@guest.club"}},
	}}
	notifier := newFakeNotifier()

	issuer := NewIssuer(source, store, admins, notifier, testLogger).WithClock(fixedClock(now))

	summary, err := issuer.Run(context.Background())
	if err != nil {
		t.Fatalf("run: unexpected error: %v", err)
	}

	wantFrom := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if !source.from.Equal(wantFrom) || !source.to.Equal(wantTo) {
		t.Fatalf("window: got [%v, %v) want [%v, %v)", source.from, source.to, wantFrom, wantTo)
	}

	if summary.EventsProcessed != 1 {
		t.Fatalf("expected 1 event processed got %d", summary.EventsProcessed)
	}
	if summary.TokensIssued != 2 {
		t.Fatalf("expected 2 tokens issued got %d", summary.TokensIssued)
	}
	// one host admin + two guest admins
	if summary.NotificationsSent != 3 {
		t.Fatalf("expected 3 notifications got %d", summary.NotificationsSent)
	}
	if len(summary.Errors) != 0 {
		t.Fatalf("expected no errors got %v", summary.Errors)
	}

	hostToGuest, ok := store.get("event-1", "club-h", "club-p")
	if !ok {
		t.Fatal("missing host->guest token")
	}
	if _, ok := store.get("event-1", "club-p", "club-h"); !ok {
		t.Fatal("missing guest->host token")
	}
	if want := now.Add(DefaultValidity); !hostToGuest.ExpiresAt.Equal(want) {
		t.Fatalf("expiry: got %v want %v", hostToGuest.ExpiresAt, want)
	}
	if hostToGuest.Used {
		t.Fatal("freshly issued token must not be used")
	}

	// Every stored hash must match the secret delivered for that pair.
	for _, delivery := range notifier.deliveries {
		tok, ok := store.byHash(HashSecret(delivery.inv.Secret))
		if !ok {
			t.Fatalf("delivered secret for %s has no stored hash", delivery.email)
		}
		if tok.Used {
			t.Fatal("delivered token must start unused")
		}
	}
}

func TestIssuer_RunIsIdempotent(t *testing.T) {
	source := &fakeEventSource{events: []event.ConcludedEvent{
		{ID: "event-1", HostClubID: "club-h", GuestClubIDs: []string{"club-p"}},
	}}
	store := newFakeStore()
	admins := &fakeAdminDirectory{admins: map[string][]club.Admin{}}
	notifier := newFakeNotifier()

	issuer := NewIssuer(source, store, admins, notifier, testLogger)

	if _, err := issuer.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := issuer.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if second.TokensIssued != 0 {
		t.Fatalf("second run must not issue tokens, got %d", second.TokensIssued)
	}
	if store.count() != 2 {
		t.Fatalf("expected 2 stored tokens got %d", store.count())
	}
}

func TestIssuer_NotifierFailureDoesNotAbort(t *testing.T) {
	source := &fakeEventSource{events: []event.ConcludedEvent{
		{ID: "event-1", HostClubID: "club-h", GuestClubIDs: []string{"club-p"}},
	}}
	store := newFakeStore()
	admins := &fakeAdminDirectory{admins: map[string][]club.Admin{
		"club-h": {{Name: "Helen", Email: "helen@host.club"}},
		"club-p": {{Name: "Pat", Email: "pat@guest.club"}},
	}}
	notifier := newFakeNotifier()
	notifier.failFor["pat@guest.club"] = errors.New("mailbox full")

	summary, err := NewIssuer(source, store, admins, notifier, testLogger).Run(context.Background())
	if err != nil {
		t.Fatalf("run: unexpected error: %v", err)
	}

	if summary.TokensIssued != 2 {
		t.Fatalf("token creation must survive notifier failures, issued %d", summary.TokensIssued)
	}
	if summary.NotificationsSent != 1 {
		t.Fatalf("expected 1 delivery got %d", summary.NotificationsSent)
	}
	if len(summary.Errors) != 1 || !strings.Contains(summary.Errors[0], "pat@guest.club") {
		t.Fatalf("expected one error naming the recipient, got %v", summary.Errors)
	}
}

func TestIssuer_LostInsertRaceIsNotAnError(t *testing.T) {
	source := &fakeEventSource{events: []event.ConcludedEvent{
		{ID: "event-1", HostClubID: "club-h", GuestClubIDs: []string{"club-p"}},
	}}
	store := newFakeStore()
	store.createErr = ErrDuplicatePair
	admins := &fakeAdminDirectory{admins: map[string][]club.Admin{}}
	notifier := newFakeNotifier()

	summary, err := NewIssuer(source, store, admins, notifier, testLogger).Run(context.Background())
	if err != nil {
		t.Fatalf("run: unexpected error: %v", err)
	}
	if summary.TokensIssued != 0 {
		t.Fatalf("expected 0 issued got %d", summary.TokensIssued)
	}
	if len(summary.Errors) != 0 {
		t.Fatalf("duplicate pair must not be reported as an error: %v", summary.Errors)
	}
}

func TestIssuer_SkipsHostListedAsGuest(t *testing.T) {
	source := &fakeEventSource{events: []event.ConcludedEvent{
		{ID: "event-1", HostClubID: "club-h", GuestClubIDs: []string{"club-h", "club-p"}},
	}}
	store := newFakeStore()
	notifier := newFakeNotifier()

	summary, err := NewIssuer(source, store, &fakeAdminDirectory{}, notifier, testLogger).Run(context.Background())
	if err != nil {
		t.Fatalf("run: unexpected error: %v", err)
	}
	if summary.TokensIssued != 2 {
		t.Fatalf("expected 2 tokens (self pair skipped) got %d", summary.TokensIssued)
	}
}

type fakeEventSource struct {
	events   []event.ConcludedEvent
	from, to time.Time
}

func (f *fakeEventSource) FindConcludedBetween(_ context.Context, from, to time.Time) ([]event.ConcludedEvent, error) {
	f.from, f.to = from, to
	return f.events, nil
}

type fakeStore struct {
	mu        sync.Mutex
	byPair    map[string]Token
	createErr error
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byPair: map[string]Token{}}
}

func pairKey(eventID, issuerClubID, targetClubID string) string {
	return eventID + "|" + issuerClubID + "|" + targetClubID
}

func (f *fakeStore) ExistsLive(_ context.Context, eventID, issuerClubID, targetClubID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.byPair[pairKey(eventID, issuerClubID, targetClubID)]
	return ok && !tok.Used, nil
}

func (f *fakeStore) Create(_ context.Context, params CreateParams) (Token, error) {
	if f.createErr != nil {
		return Token{}, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	tok := Token{
		ID:           fmt.Sprintf("token-%d", f.nextID),
		SecretHash:   params.SecretHash,
		EventID:      params.EventID,
		IssuerClubID: params.IssuerClubID,
		TargetClubID: params.TargetClubID,
		ExpiresAt:    params.ExpiresAt,
	}
	f.byPair[pairKey(params.EventID, params.IssuerClubID, params.TargetClubID)] = tok
	return tok, nil
}

func (f *fakeStore) get(eventID, issuerClubID, targetClubID string) (Token, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.byPair[pairKey(eventID, issuerClubID, targetClubID)]
	return tok, ok
}

func (f *fakeStore) byHash(hash string) (Token, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tok := range f.byPair {
		if tok.SecretHash == hash {
			return tok, true
		}
	}
	return Token{}, false
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byPair)
}

type fakeAdminDirectory struct {
	admins map[string][]club.Admin
	err    error
}

func (f *fakeAdminDirectory) AdminsOf(_ context.Context, clubID string) ([]club.Admin, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.admins[clubID], nil
}

type delivery struct {
	email string
	inv   Invitation
}

type fakeNotifier struct {
	mu         sync.Mutex
	failFor    map[string]error
	deliveries []delivery
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: map[string]error{}}
}

func (f *fakeNotifier) Send(_ context.Context, email string, inv Invitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[email]; ok {
		return err
	}
	f.deliveries = append(f.deliveries, delivery{email: email, inv: inv})
	return nil
}
