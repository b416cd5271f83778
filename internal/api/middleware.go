package api

import (
	"net/http"

	"solidchat-backend/internal/auth"
)

// identityMiddleware stamps the resolved WebID onto every request context
// so handlers and services can check the sign-in precondition uniformly.
func identityMiddleware(webID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if webID != "" {
				r = r.WithContext(auth.WithWebID(r.Context(), webID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
