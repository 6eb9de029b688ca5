package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nzoschke/cadence/internal/ctxkeys"
	"github.com/nzoschke/cadence/internal/handler"
	"github.com/nzoschke/cadence/internal/service"
)

// RequireAuth resolves the bearer token to a user and adds it to the context.
// Requests without a valid token get a 401 problem.
func RequireAuth(authService *service.AuthService) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="cadence"`)
				handler.WriteProblem(w, r, http.StatusUnauthorized, "Missing bearer token")
				return
			}

			user, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, service.ErrInvalidToken) {
					slog.Error("failed to authenticate request", "error", err, "path", r.URL.Path)
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="cadence", error="invalid_token"`)
				handler.MapError(w, r, err)
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
