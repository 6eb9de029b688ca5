package routes

import (
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/nzoschke/cadence/internal/app"
	"github.com/nzoschke/cadence/internal/handler"
	"github.com/nzoschke/cadence/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB, app.LLM)
	goals := handler.NewRecurringGoalHandler(app.RecurringGoalService, app.Clock)
	tasks := handler.NewTaskHandler(app.TaskService)
	archive := handler.NewArchiveHandler(app.ArchiveService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)

	// ============================================================================
	// API ROUTES (bearer token, rate limited per client IP)
	// ============================================================================

	rateLimiter := middleware.RateLimit(app.Cfg.RateLimitRequests, app.Cfg.RateLimitWindow)
	requireAuth := middleware.RequireAuth(app.AuthService)
	api := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimiter(requireAuth(h))
	}

	// Recurring goals
	mux.HandleFunc("GET /api/recurring-goals", api(goals.List))
	mux.HandleFunc("POST /api/recurring-goals", api(goals.Create))
	mux.HandleFunc("GET /api/recurring-goals/today-status", api(goals.TodayStatus))
	mux.HandleFunc("POST /api/recurring-goals/generate-daily-tasks", api(goals.GenerateDailyTasks))
	mux.HandleFunc("GET /api/recurring-goals/{id}", api(goals.Get))
	mux.HandleFunc("PATCH /api/recurring-goals/{id}", api(goals.Update))
	mux.HandleFunc("DELETE /api/recurring-goals/{id}", api(goals.Delete))
	mux.HandleFunc("POST /api/recurring-goals/{id}/complete", api(goals.Complete))
	mux.HandleFunc("GET /api/recurring-goals/{id}/stats", api(goals.Stats))
	mux.HandleFunc("GET /api/recurring-goals/{id}/history", api(goals.History))

	// Tasks
	mux.HandleFunc("GET /api/tasks", api(tasks.List))
	mux.HandleFunc("POST /api/tasks", api(tasks.Create))
	mux.HandleFunc("GET /api/tasks/{id}", api(tasks.Get))
	mux.HandleFunc("PUT /api/tasks/{id}", api(tasks.Update))
	mux.HandleFunc("POST /api/tasks/{id}/toggle", api(tasks.Toggle))
	mux.HandleFunc("DELETE /api/tasks/{id}", api(tasks.Delete))
	mux.HandleFunc("POST /api/tasks/{id}/breakdown", api(tasks.Breakdown))
	mux.HandleFunc("POST /api/tasks/{id}/accept-breakdown", api(tasks.AcceptBreakdown))

	// Archive & journal
	mux.HandleFunc("PUT /api/archive/journal/{date}", api(archive.Journal))
	mux.HandleFunc("POST /api/archive/daily", api(archive.Archive))
	mux.HandleFunc("GET /api/archive/date/{date}", api(archive.Day))
	mux.HandleFunc("GET /api/archive/recent", api(archive.Recent))
	mux.HandleFunc("POST /api/archive/export", api(archive.Export))

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		withProblemFallback(mux),
		chimw.RequestID,
		chimw.RealIP,
		middleware.RequestLogging,
		chimw.Recoverer,
		middleware.Config(app.Cfg),
	)
}

var routeMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// withProblemFallback answers unmatched requests with problem+json: 405 with
// an Allow header when the path exists under other methods, 404 otherwise.
func withProblemFallback(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)
		if pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}

		var allowed []string
		for _, method := range routeMethods {
			probe := r.Clone(r.Context())
			probe.Method = method
			if _, p := mux.Handler(probe); p != "" {
				allowed = append(allowed, method)
			}
		}

		if len(allowed) > 0 {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			handler.WriteProblem(w, r, http.StatusMethodNotAllowed, "Method "+r.Method+" not allowed for "+r.URL.Path)
			return
		}
		handler.WriteProblem(w, r, http.StatusNotFound, "No route for "+r.Method+" "+r.URL.Path)
	})
}
