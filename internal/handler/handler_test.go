package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nzoschke/cadence/internal/ctxkeys"
	"github.com/nzoschke/cadence/internal/db"
	"github.com/nzoschke/cadence/internal/llm"
	"github.com/nzoschke/cadence/internal/markdown"
	"github.com/nzoschke/cadence/internal/model"
	"github.com/nzoschke/cadence/internal/repository"
	"github.com/nzoschke/cadence/internal/schedule"
	"github.com/nzoschke/cadence/internal/service"
	"github.com/nzoschke/cadence/internal/testutil"
	"github.com/nzoschke/cadence/internal/validation"
)

type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) Complete(ctx context.Context, prompt string) (llm.Completion, error) {
	return llm.Completion{Text: s.reply}, s.err
}

func (s *stubLLM) CompleteJSON(ctx context.Context, prompt string, v any) error {
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.reply), v)
}

func (s *stubLLM) Available() bool { return s.err == nil }

type testServer struct {
	mux  *http.ServeMux
	llm  *stubLLM
	user *model.User
}

// newTestServer wires real services over a temp database. The clock is fixed
// at Wednesday 2024-01-03 10:00 UTC.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	database := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, database, "user-1")
	clock := schedule.FixedClock(time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC))
	stub := &stubLLM{}

	goalRepo := repository.NewRecurringGoalRepository(database)
	completionRepo := repository.NewGoalCompletionRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	tx := db.NewTransactor(database)

	goals := NewRecurringGoalHandler(
		service.NewRecurringGoalService(goalRepo, completionRepo, taskRepo, tx, schedule.DefaultWeek, clock), clock)
	tasks := NewTaskHandler(service.NewTaskService(taskRepo, tx, stub, clock))
	archive := NewArchiveHandler(service.NewArchiveService(
		repository.NewArchiveRepository(database), taskRepo, completionRepo, markdown.NewParser(), nil, clock))
	health := NewHealthHandler(database, stub)

	// inject the user the way RequireAuth does
	auth := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			h(w, r.WithContext(ctxkeys.WithUser(r.Context(), user)))
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /api/recurring-goals", auth(goals.List))
	mux.HandleFunc("POST /api/recurring-goals", auth(goals.Create))
	mux.HandleFunc("GET /api/recurring-goals/today-status", auth(goals.TodayStatus))
	mux.HandleFunc("POST /api/recurring-goals/generate-daily-tasks", auth(goals.GenerateDailyTasks))
	mux.HandleFunc("GET /api/recurring-goals/{id}", auth(goals.Get))
	mux.HandleFunc("PATCH /api/recurring-goals/{id}", auth(goals.Update))
	mux.HandleFunc("DELETE /api/recurring-goals/{id}", auth(goals.Delete))
	mux.HandleFunc("POST /api/recurring-goals/{id}/complete", auth(goals.Complete))
	mux.HandleFunc("GET /api/recurring-goals/{id}/stats", auth(goals.Stats))
	mux.HandleFunc("GET /api/recurring-goals/{id}/history", auth(goals.History))
	mux.HandleFunc("GET /api/tasks", auth(tasks.List))
	mux.HandleFunc("POST /api/tasks", auth(tasks.Create))
	mux.HandleFunc("GET /api/tasks/{id}", auth(tasks.Get))
	mux.HandleFunc("PUT /api/tasks/{id}", auth(tasks.Update))
	mux.HandleFunc("POST /api/tasks/{id}/toggle", auth(tasks.Toggle))
	mux.HandleFunc("DELETE /api/tasks/{id}", auth(tasks.Delete))
	mux.HandleFunc("POST /api/tasks/{id}/breakdown", auth(tasks.Breakdown))
	mux.HandleFunc("POST /api/tasks/{id}/accept-breakdown", auth(tasks.AcceptBreakdown))
	mux.HandleFunc("PUT /api/archive/journal/{date}", auth(archive.Journal))
	mux.HandleFunc("POST /api/archive/daily", auth(archive.Archive))
	mux.HandleFunc("GET /api/archive/date/{date}", auth(archive.Day))
	mux.HandleFunc("GET /api/archive/recent", auth(archive.Recent))
	mux.HandleFunc("POST /api/archive/export", auth(archive.Export))

	return &testServer{mux: mux, llm: stub, user: user}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (status %d)", err, rec.Code)
	}
	return v
}

func TestRecurringGoalLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/recurring-goals", map[string]any{
		"title":        "Run",
		"frequency":    "x_per_week",
		"timesPerWeek": 3,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	goal := decode[model.RecurringGoal](t, rec)

	rec = s.do(t, http.MethodGet, "/api/recurring-goals/today-status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("today-status status = %d", rec.Code)
	}
	statuses := decode[[]map[string]any](t, rec)
	if len(statuses) != 1 || statuses[0]["due_today"] != true || statuses[0]["remaining_this_week"] != float64(3) {
		t.Errorf("today-status = %v", statuses)
	}

	rec = s.do(t, http.MethodPost, "/api/recurring-goals/generate-daily-tasks", nil)
	result := decode[service.GenerationResult](t, rec)
	if rec.Code != http.StatusOK || result.Count != 1 {
		t.Errorf("generate = %d %+v", rec.Code, result)
	}

	rec = s.do(t, http.MethodPost, "/api/recurring-goals/"+goal.ID+"/complete", nil)
	outcome := decode[service.CompletionOutcome](t, rec)
	if rec.Code != http.StatusOK || outcome.Status != service.CompletionCompleted || outcome.Goal.Streak != 1 {
		t.Errorf("complete = %d %+v", rec.Code, outcome)
	}

	rec = s.do(t, http.MethodPost, "/api/recurring-goals/"+goal.ID+"/complete", nil)
	outcome = decode[service.CompletionOutcome](t, rec)
	if rec.Code != http.StatusOK || outcome.Status != service.CompletionAlreadyDone {
		t.Errorf("second complete = %d %+v", rec.Code, outcome)
	}

	rec = s.do(t, http.MethodGet, "/api/recurring-goals/"+goal.ID+"/stats", nil)
	stats := decode[model.GoalStats](t, rec)
	if stats.TotalCompletions != 1 || stats.CompletionRate30d != 3 {
		t.Errorf("stats = %+v", stats)
	}

	rec = s.do(t, http.MethodGet, "/api/recurring-goals/"+goal.ID+"/history?limit=5", nil)
	history := decode[[]model.GoalCompletion](t, rec)
	if len(history) != 1 || history[0].CompletionDate != "2024-01-03" {
		t.Errorf("history = %+v", history)
	}

	rec = s.do(t, http.MethodPatch, "/api/recurring-goals/"+goal.ID, map[string]any{"title": "Run far"})
	updated := decode[model.RecurringGoal](t, rec)
	if rec.Code != http.StatusOK || updated.Title != "Run far" {
		t.Errorf("update = %d %+v", rec.Code, updated)
	}

	rec = s.do(t, http.MethodDelete, "/api/recurring-goals/"+goal.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/recurring-goals/"+goal.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

func TestRecurringGoalCreate_ValidationProblem(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/recurring-goals", map[string]any{
		"title":     "Piano",
		"frequency": "specific_days",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %s", ct)
	}

	problem := decode[ProblemWithErrors](t, rec)
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "specificDays" {
		t.Errorf("errors = %+v", problem.Errors)
	}

	rec = s.do(t, http.MethodPost, "/api/recurring-goals", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}

	rec = s.do(t, http.MethodPatch, "/api/recurring-goals/missing", map[string]any{})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty update status = %d, want 422", rec.Code)
	}
}

func TestTaskEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "Plan trip", "energyRequired": 3})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	task := decode[model.Task](t, rec)

	s.llm.reply = `[{"title":"Pick dates","estimated_duration":10},{"title":"Book hotel"}]`
	rec = s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/breakdown", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("breakdown status = %d: %s", rec.Code, rec.Body.String())
	}
	suggested := decode[struct {
		Subtasks []model.SubtaskSuggestion `json:"subtasks"`
	}](t, rec)
	if len(suggested.Subtasks) != 2 {
		t.Fatalf("suggestions = %+v", suggested.Subtasks)
	}

	rec = s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/accept-breakdown", suggested)
	if rec.Code != http.StatusCreated {
		t.Fatalf("accept status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/tasks/"+task.ID, nil)
	loaded := decode[model.Task](t, rec)
	if len(loaded.Subtasks) != 2 {
		t.Errorf("subtasks = %d, want 2", len(loaded.Subtasks))
	}

	rec = s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/toggle", nil)
	toggled := decode[model.Task](t, rec)
	if toggled.Status != model.TaskStatusCompleted {
		t.Errorf("toggled status = %s", toggled.Status)
	}

	rec = s.do(t, http.MethodGet, "/api/tasks?status=completed", nil)
	completed := decode[[]model.Task](t, rec)
	if len(completed) != 1 {
		t.Errorf("completed tasks = %d, want 1", len(completed))
	}

	rec = s.do(t, http.MethodPut, "/api/tasks/"+task.ID, map[string]any{"title": "Plan the trip"})
	if rec.Code != http.StatusOK {
		t.Errorf("update status = %d", rec.Code)
	}

	rec = s.do(t, http.MethodDelete, "/api/tasks/"+task.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = s.do(t, http.MethodDelete, "/api/tasks/"+task.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", rec.Code)
	}
}

func TestBreakdown_LLMErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "Plan trip"})
	task := decode[model.Task](t, rec)

	s.llm.err = llm.ErrUnavailable
	rec = s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/breakdown", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unavailable status = %d, want 503", rec.Code)
	}

	s.llm.err = nil
	s.llm.reply = `[]`
	rec = s.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/breakdown", nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("empty breakdown status = %d, want 502", rec.Code)
	}
}

func TestArchiveEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/archive/journal/2024-01-03", map[string]any{"body": "---\nmood: 5\n---\nGreat *day*"})
	if rec.Code != http.StatusOK {
		t.Fatalf("journal status = %d: %s", rec.Code, rec.Body.String())
	}
	entry := decode[model.JournalEntry](t, rec)
	if entry.Mood == nil || *entry.Mood != 5 {
		t.Errorf("mood = %v, want 5", entry.Mood)
	}

	rec = s.do(t, http.MethodGet, "/api/archive/date/2024-01-03", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("day before archive status = %d, want 404", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/archive/daily", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("archive status = %d: %s", rec.Code, rec.Body.String())
	}
	day := decode[model.ArchiveDay](t, rec)
	if day.Archive.ArchiveDate != "2024-01-03" || day.Journal == nil {
		t.Errorf("archive day = %+v", day)
	}

	rec = s.do(t, http.MethodGet, "/api/archive/date/2024-01-03", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("day status = %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/archive/recent?limit=3", nil)
	recent := decode[[]model.DailyArchive](t, rec)
	if len(recent) != 1 {
		t.Errorf("recent = %d rows", len(recent))
	}

	rec = s.do(t, http.MethodGet, "/api/archive/date/yesterday", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad date status = %d, want 422", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/archive/export", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("export without storage status = %d, want 503", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" || body["llm_available"] != true {
		t.Errorf("health = %v", body)
	}
}

type failingPinger struct{}

func (failingPinger) PingContext(ctx context.Context) error { return errors.New("connection refused") }

func TestHealth_DatabaseDown(t *testing.T) {
	h := NewHealthHandler(failingPinger{}, &stubLLM{err: llm.ErrUnavailable})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["database"] != "unreachable" || body["llm_available"] != false {
		t.Errorf("health = %v", body)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{validation.New("title", "is required"), http.StatusUnprocessableEntity},
		{fmt.Errorf("wrapped: %w", repository.ErrGoalNotFound), http.StatusNotFound},
		{repository.ErrTaskNotFound, http.StatusNotFound},
		{repository.ErrArchiveNotFound, http.StatusNotFound},
		{service.ErrInvalidToken, http.StatusUnauthorized},
		{llm.ErrUnavailable, http.StatusServiceUnavailable},
		{llm.ErrInvalidResponse, http.StatusBadGateway},
		{service.ErrExportNotConfigured, http.StatusServiceUnavailable},
		{errors.New("database is locked"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			MapError(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil), tt.err)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			problem := decode[Problem](t, rec)
			if problem.Status != tt.status || problem.Instance != "/api/x" {
				t.Errorf("problem = %+v", problem)
			}
			if tt.status == http.StatusInternalServerError && problem.Detail != "Internal Server Error" {
				t.Errorf("internal detail leaked: %q", problem.Detail)
			}
		})
	}
}
