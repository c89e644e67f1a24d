package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/freightops/load-ledger-api/pkg/logger"
)

// APIKeyMiddleware gates requests behind a single shared X-API-Key
// credential. Paths in Exempt are always allowed through (health and debug
// introspection).
type APIKeyMiddleware struct {
	apiKey string
	exempt map[string]bool
	logger logger.Logger
}

// NewAPIKeyMiddleware creates the middleware. An empty apiKey disables the
// check entirely, which is only intended for local development.
func NewAPIKeyMiddleware(apiKey string, exemptPaths []string, logger logger.Logger) *APIKeyMiddleware {
	exempt := make(map[string]bool, len(exemptPaths))
	for _, p := range exemptPaths {
		exempt[p] = true
	}

	return &APIKeyMiddleware{
		apiKey: apiKey,
		exempt: exempt,
		logger: logger,
	}
}

// Middleware returns the http middleware function
func (m *APIKeyMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.apiKey == "" || m.exempt[r.URL.Path] || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		provided := r.Header.Get("X-API-Key")

		if subtle.ConstantTimeCompare([]byte(provided), []byte(m.apiKey)) != 1 {
			m.logger.Warn("Rejected request with invalid API key", "method", r.Method, "path", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   "invalid or missing API key",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
