package middleware

import (
	"net/http"

	"github.com/nzoschke/cadence/internal/config"
	"github.com/nzoschke/cadence/internal/ctxkeys"
)

// Config middleware adds the sanitized app configuration to the request context.
// Secrets such as JWTSecret and LLMAPIKey are stripped.
func Config(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxkeys.WithConfig(r.Context(), cfg.Sanitized())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
