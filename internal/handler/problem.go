package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nzoschke/cadence/internal/llm"
	"github.com/nzoschke/cadence/internal/repository"
	"github.com/nzoschke/cadence/internal/service"
	"github.com/nzoschke/cadence/internal/validation"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

type problemType struct {
	typeURI string
	title   string
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]problemType{
	http.StatusBadRequest:          {"https://cadence.dev/errors/bad-request", "Bad Request"},
	http.StatusUnauthorized:        {"https://cadence.dev/errors/unauthorized", "Unauthorized"},
	http.StatusNotFound:            {"https://cadence.dev/errors/not-found", "Not Found"},
	http.StatusMethodNotAllowed:    {"https://cadence.dev/errors/method-not-allowed", "Method Not Allowed"},
	http.StatusUnprocessableEntity: {"https://cadence.dev/errors/validation-error", "Validation Error"},
	http.StatusTooManyRequests:     {"https://cadence.dev/errors/rate-limit", "Too Many Requests"},
	http.StatusInternalServerError: {"https://cadence.dev/errors/internal-error", "Internal Server Error"},
	http.StatusBadGateway:          {"https://cadence.dev/errors/bad-gateway", "Bad Gateway"},
	http.StatusServiceUnavailable:  {"https://cadence.dev/errors/service-unavailable", "Service Unavailable"},
}

func newProblem(r *http.Request, status int, detail string) Problem {
	pt, ok := problemTypes[status]
	if !ok {
		pt = problemType{typeURI: "https://cadence.dev/errors/unknown", title: http.StatusText(status)}
	}

	return Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblemBody(w, status, newProblem(r, status, detail))
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	writeProblemBody(w, http.StatusUnprocessableEntity, ProblemWithErrors{
		Problem: newProblem(r, http.StatusUnprocessableEntity, detail),
		Errors:  errs,
	})
}

func writeProblemBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapError converts domain errors to Problem Details responses.
func MapError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs *validation.Errors

	switch {
	case errors.As(err, &verrs):
		WriteProblemWithErrors(w, r, "Request validation failed", verrs.Fields)
	case errors.Is(err, repository.ErrGoalNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Recurring goal not found")
	case errors.Is(err, repository.ErrTaskNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Task not found")
	case errors.Is(err, repository.ErrArchiveNotFound):
		WriteProblem(w, r, http.StatusNotFound, "No archive for this date")
	case errors.Is(err, repository.ErrJournalNotFound):
		WriteProblem(w, r, http.StatusNotFound, "No journal entry for this date")
	case errors.Is(err, service.ErrInvalidToken):
		WriteProblem(w, r, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, llm.ErrUnavailable):
		WriteProblem(w, r, http.StatusServiceUnavailable, "AI assistant is temporarily unavailable")
	case errors.Is(err, llm.ErrInvalidResponse):
		WriteProblem(w, r, http.StatusBadGateway, "AI assistant returned an unusable response")
	case errors.Is(err, service.ErrExportNotConfigured):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Archive export is not configured")
	default:
		// Never expose internal error details to client
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
