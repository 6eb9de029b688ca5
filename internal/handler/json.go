package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nzoschke/cadence/internal/ctxkeys"
	"github.com/nzoschke/cadence/internal/model"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
// On failure it writes a 400 problem and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	WriteProblem(w, r, http.StatusBadRequest, "Request body must be valid JSON")
	return false
}

// queryInt parses an optional integer query parameter; absent or invalid
// values yield 0.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

// currentUser returns the authenticated user. Routes are wrapped in
// RequireAuth, so a nil user means a wiring bug.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user := ctxkeys.User(r.Context())
	if user == nil {
		WriteProblem(w, r, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return user, true
}
