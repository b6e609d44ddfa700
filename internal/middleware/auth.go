package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey string

// APIKeyAuth validates the bearer key from the Authorization header.
// An empty key set disables the check.
func APIKeyAuth(validKeys map[string]struct{}) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				WriteError(w, http.StatusUnauthorized, "Unauthorized", "missing Authorization header")
				return
			}

			// Support both "Bearer <key>" and "<key>" formats
			apiKey := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if apiKey == "" {
				WriteError(w, http.StatusUnauthorized, "Unauthorized", "invalid Authorization header format")
				return
			}

			valid := false
			for key := range validKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					valid = true
				}
			}
			if !valid {
				WriteError(w, http.StatusUnauthorized, "Unauthorized", "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
