package config

import "os"

// Config captures everything the API process reads from its environment.
type Config struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	// CronSecret authenticates the periodic issuance trigger. The scheduler
	// presents it as a bearer token; anything else is rejected.
	CronSecret string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("CLUBFLOW_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtKey == "" {
		// Development default; must be overridden in production.
		jwtKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSigningKey: jwtKey,
		CronSecret:    os.Getenv("CRON_SECRET"),
	}
}
