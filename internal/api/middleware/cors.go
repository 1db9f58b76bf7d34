package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// corsAllowedHeaders are the request headers browser clients may send.
var corsAllowedHeaders = []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"}

// CORS allows browser clients from any origin and answers preflight
// requests without reaching the routes.
func CORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: corsAllowedHeaders,
		MaxAge:         300,
	})(next)
}
