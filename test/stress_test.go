package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"clubflow/club"
	"clubflow/conflict"
	"clubflow/event"
	"clubflow/review"
	"clubflow/test/actors"
	"clubflow/test/infra"
	"clubflow/test/oracles"
	"clubflow/token"
)

var (
	flDuration    = flag.Duration("duration", 90*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent actors")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

func seedRNG(seed int64) { rand.Seed(seed) }

func TestFeedbackConcurrency(t *testing.T) {
	flag.Parse()
	seed := *flSeed
	seedRNG(seed)

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	switch {
	case *flDSN != "":
		dsn = *flDSN
		usedShared = true
		pgC = &infra.PGContainer{}
	case os.Getenv("STRESS_TEST_PG_DSN") != "":
		dsn = os.Getenv("STRESS_TEST_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Fatalf("init local database: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	// migrations
	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	// seed clubs, admins and yesterday's events
	seedData := mustSeed(t, ctx, pool)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bag := &actors.SecretBag{}

	tokenRepo := token.NewRepository(pool)
	issuer := token.NewIssuer(
		event.NewService(event.NewRepository(pool)),
		tokenRepo,
		club.NewService(club.NewRepository(pool)),
		&actors.BagNotifier{Bag: bag},
		logger,
	)
	recorder := review.NewRecorder(pool, tokenRepo, review.NewRepository(pool), conflict.NewRepository(pool), logger)
	query := review.NewQuery(review.NewRepository(pool))

	// run actors
	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	// overlapping issuer runs battling over the same directed pairs
	for i := 0; i < 2; i++ {
		g.Go(func() error { return actors.IssuerLoop(ctx2, issuer, stop) })
	}
	// submitters draining the secret bag
	for i := 0; i < *flConcurrency; i++ {
		g.Go(func() error { return actors.Submitter(ctx2, recorder, bag, stop) })
	}
	// replayer trying to double-spend consumed secrets
	g.Go(func() error { return actors.Replayer(ctx2, recorder, bag, stop) })
	// lister reading through every intermediate state
	g.Go(func() error { return actors.Lister(ctx2, query, seedData.clubIDs, stop) })

	// schedule oracle checks until duration reached
	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed bool
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(ctx2, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				t.Fatalf("oracle error: %v", err)
			}
			if name != "" {
				failed = true
				dumpRecent(t, ctx2, pool)
				t.Fatalf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

type seedIDs struct {
	clubIDs  []string
	eventIDs []string
}

// mustSeed creates three clubs with one admin each and two events that
// concluded yesterday, so every issuer run finds work inside its window.
func mustSeed(t *testing.T, ctx context.Context, pool *pgxpool.Pool) seedIDs {
	t.Helper()
	var s seedIDs

	names := []string{"Falcons SC", "Harbor United", "Northside Rovers"}
	for i, name := range names {
		var clubID string
		err := pool.QueryRow(ctx, `INSERT INTO clubs (name, city, verified) VALUES ($1, $2, true) RETURNING id`,
			fmt.Sprintf("%s %d", name, rand.Int63()), "Rotterdam").Scan(&clubID)
		if err != nil {
			t.Fatalf("seed club: %v", err)
		}
		s.clubIDs = append(s.clubIDs, clubID)

		_, err = pool.Exec(ctx, `INSERT INTO users (email, full_name, club_id, role) VALUES ($1, $2, $3, 'club_admin')`,
			fmt.Sprintf("admin%d+%d@example.com", i, rand.Int63()), fmt.Sprintf("Admin %d", i), clubID)
		if err != nil {
			t.Fatalf("seed admin: %v", err)
		}
	}

	yesterday := time.Now().Add(-24 * time.Hour)
	type eventSeed struct {
		host   string
		guests []string
	}
	seeds := []eventSeed{
		{host: s.clubIDs[0], guests: []string{s.clubIDs[1], s.clubIDs[2]}},
		{host: s.clubIDs[1], guests: []string{s.clubIDs[0]}},
	}
	for i, es := range seeds {
		var eventID string
		err := pool.QueryRow(ctx, `INSERT INTO events (host_club_id, title, starts_at, ends_at) VALUES ($1, $2, $3, $4) RETURNING id`,
			es.host, fmt.Sprintf("Friendly %d", i), yesterday.Add(-2*time.Hour), yesterday).Scan(&eventID)
		if err != nil {
			t.Fatalf("seed event: %v", err)
		}
		s.eventIDs = append(s.eventIDs, eventID)
		for _, guest := range es.guests {
			if _, err := pool.Exec(ctx, `INSERT INTO event_participants (event_id, club_id) VALUES ($1, $2)`, eventID, guest); err != nil {
				t.Fatalf("seed participant: %v", err)
			}
		}
	}

	return s
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	type dump struct {
		name string
		sql  string
	}
	dumps := []dump{
		{"feedback_tokens", `SELECT id, event_id, issuer_club_id, target_club_id, used, expires_at FROM feedback_tokens ORDER BY created_at DESC LIMIT 50`},
		{"reviews", `SELECT id, token_id, rating, status, is_conflict, created_at FROM reviews ORDER BY created_at DESC LIMIT 50`},
		{"conflicts", `SELECT id, review_id, status, priority, created_at FROM conflicts ORDER BY created_at DESC LIMIT 50`},
	}
	for _, d := range dumps {
		rows, err := pool.Query(ctx, d.sql)
		if err != nil {
			t.Logf("dump %s error: %v", d.name, err)
			continue
		}
		cols := rows.FieldDescriptions()
		t.Logf("-- %s --", d.name)
		for rows.Next() {
			vals, _ := rows.Values()
			// compact print
			buf := make([]any, 0, len(vals))
			for i := range vals {
				buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
			}
			t.Logf("%s", buf)
		}
		rows.Close()
	}
}
