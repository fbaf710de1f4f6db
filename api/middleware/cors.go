package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// envHeader is set by the health endpoints.
const envHeader = "X-ApexEV-Env"

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// CORS applies the browser origin policy. Origins are compared without a
// trailing slash; a "*" entry allows any origin but disables credentials.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed, wildcard := normalizeOrigins(origins)
	if len(allowed) == 0 && !wildcard {
		allowed = defaultCORSOrigins
	}
	if wildcard {
		allowed = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, envHeader},
		AllowCredentials: !wildcard,
		MaxAge:           600,
	})
}

func normalizeOrigins(origins []string) (allowed []string, wildcard bool) {
	seen := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" {
			continue
		}
		if origin == "*" {
			wildcard = true
			continue
		}
		if _, dup := seen[origin]; dup {
			continue
		}
		seen[origin] = struct{}{}
		allowed = append(allowed, origin)
	}
	return allowed, wildcard
}
