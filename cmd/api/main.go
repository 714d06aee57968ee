package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"clubflow/auth"
	"clubflow/club"
	"clubflow/config"
	"clubflow/conflict"
	"clubflow/db"
	"clubflow/event"
	"clubflow/httpapi"
	"clubflow/metrics"
	"clubflow/notify"
	"clubflow/review"
	"clubflow/token"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.FromEnv()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("bootstrap database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	m := metrics.New()

	authService := auth.NewService(auth.NewRepository(pool), cfg.JWTSigningKey)
	clubService := club.NewService(club.NewRepository(pool))
	eventService := event.NewService(event.NewRepository(pool))

	tokenRepo := token.NewRepository(pool)
	issuer := token.NewIssuer(eventService, tokenRepo, clubService, notify.NewLogNotifier(logger), logger)

	reviewRepo := review.NewRepository(pool)
	recorder := review.NewRecorder(pool, tokenRepo, reviewRepo, conflict.NewRepository(pool), logger)
	query := review.NewQuery(reviewRepo)

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:       httpapi.NewAuthHandler(authService, logger),
		Feedback:   httpapi.NewFeedbackHandler(issuer, recorder, query, logger, m),
		Clubs:      httpapi.NewClubHandler(clubService, logger),
		Events:     httpapi.NewEventHandler(eventService, logger),
		Verifier:   authService,
		CronSecret: cfg.CronSecret,
		Logger:     logger,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("clubflow feedback api listening", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
