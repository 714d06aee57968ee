package httpapi

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"clubflow/auth"
)

// TokenVerifier validates a bearer token and returns the caller identity.
type TokenVerifier interface {
	VerifyToken(tokenString string) (auth.Identity, error)
}

type contextKeyIdentity struct{}

// IdentityFrom retrieves the authenticated identity from the context.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	ident, ok := ctx.Value(contextKeyIdentity{}).(auth.Identity)
	return ident, ok
}

// RequireAuth guards staff endpoints with JWT bearer authentication and
// places the verified identity in the request context.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody{Kind: "unauthorized", Message: "Missing or invalid Authorization header."})
				return
			}

			ident, err := verifier.VerifyToken(raw)
			if err != nil {
				logger.WarnContext(r.Context(), "rejected bearer token", "error", err)
				writeJSON(w, http.StatusUnauthorized, errorBody{Kind: "unauthorized", Message: "Invalid or expired token."})
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyIdentity{}, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCronSecret guards the periodic issuance trigger with a static
// bearer secret presented by the scheduler.
func RequireCronSecret(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if secret == "" || !ok || subtle.ConstantTimeCompare([]byte(raw), []byte(secret)) != 1 {
				logger.WarnContext(r.Context(), "rejected issuance trigger", "path", r.URL.Path)
				writeJSON(w, http.StatusUnauthorized, errorBody{Kind: "unauthorized", Message: "Invalid scheduler credentials."})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	after, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || after == "" {
		return "", false
	}
	return after, true
}
