package middleware

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/intranet-search/internal/logging"
	"github.com/google/uuid"
)

type contextKey string

const requestStateKey contextKey = "request_state"

// requestState is shared by the outer middlewares so they can observe the
// identity resolved further down the chain.
type requestState struct {
	requestID string
	userID    string
}

// RequestID injects a request ID into context and response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		ctx = context.WithValue(ctx, requestStateKey, &requestState{requestID: requestID})
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID from context.
func GetRequestID(ctx context.Context) string {
	return logging.RequestIDFromContext(ctx)
}

func stateFrom(ctx context.Context) *requestState {
	state, _ := ctx.Value(requestStateKey).(*requestState)
	return state
}

// resolvedUserID returns the identity recorded by the auth middleware for
// this request, if any.
func resolvedUserID(ctx context.Context) string {
	if id := logging.UserIDFromContext(ctx); id != "" {
		return id
	}
	if state := stateFrom(ctx); state != nil {
		return state.userID
	}
	return ""
}
