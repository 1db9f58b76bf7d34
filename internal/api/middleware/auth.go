package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloo-solutions/intranet-search/internal/api"
	"github.com/cloo-solutions/intranet-search/internal/logging"
	"go.uber.org/zap"
)

// UserResolver maps a bearer token to an intranet user id.
type UserResolver interface {
	ResolveUser(ctx context.Context, token string) (string, error)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

func withUser(r *http.Request, userID string) *http.Request {
	if state := stateFrom(r.Context()); state != nil {
		state.userID = userID
	}
	return r.WithContext(logging.WithUserID(r.Context(), userID))
}

// OptionalAuth resolves the caller when a valid bearer token is present.
// Requests without one, or with one that cannot be resolved, continue
// anonymously.
func OptionalAuth(resolver UserResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logging.OrNop(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := resolver.ResolveUser(r.Context(), token)
			if err != nil {
				logging.For(r.Context(), logger).Debug("treating caller as anonymous", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, withUser(r, userID))
		})
	}
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			userID, err := resolver.ResolveUser(r.Context(), token)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, withUser(r, userID))
		})
	}
}

// GetUserID returns the resolved caller, or "" for anonymous requests.
func GetUserID(ctx context.Context) string {
	return logging.UserIDFromContext(ctx)
}
