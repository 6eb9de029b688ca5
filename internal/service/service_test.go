package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nzoschke/cadence/internal/db"
	"github.com/nzoschke/cadence/internal/llm"
	"github.com/nzoschke/cadence/internal/markdown"
	"github.com/nzoschke/cadence/internal/model"
	"github.com/nzoschke/cadence/internal/repository"
	"github.com/nzoschke/cadence/internal/schedule"
	"github.com/nzoschke/cadence/internal/storage"
	"github.com/nzoschke/cadence/internal/testutil"
)

const testUser = "user-1"

// day returns midnight UTC for a calendar day.
func day(s string) time.Time {
	t, err := schedule.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func intPtr(i int) *int { return &i }

type services struct {
	db       *sqlx.DB
	goals    *RecurringGoalService
	tasks    *TaskService
	archive  *ArchiveService
	auth     *AuthService
	taskRepo repository.TaskRepository
	llm      *mockLLM
	store    *fakeStorage
}

func newServices(t *testing.T, now time.Time) *services {
	t.Helper()

	database := testutil.NewTestDB(t)
	testutil.CreateUser(t, database, testUser)

	goalRepo := repository.NewRecurringGoalRepository(database)
	completionRepo := repository.NewGoalCompletionRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	archiveRepo := repository.NewArchiveRepository(database)
	tx := db.NewTransactor(database)
	clock := schedule.FixedClock(now)
	mock := &mockLLM{}
	store := &fakeStorage{objects: map[string][]byte{}}

	return &services{
		db:       database,
		goals:    NewRecurringGoalService(goalRepo, completionRepo, taskRepo, tx, schedule.DefaultWeek, clock),
		tasks:    NewTaskService(taskRepo, tx, mock, clock),
		archive:  NewArchiveService(archiveRepo, taskRepo, completionRepo, markdown.NewParser(), store, clock),
		auth:     NewAuthService(repository.NewUserRepository(database), "secret", time.Hour),
		taskRepo: taskRepo,
		llm:      mock,
		store:    store,
	}
}

func (s *services) createGoal(t *testing.T, input model.RecurringGoalInput, today time.Time) *model.RecurringGoal {
	t.Helper()
	goal, err := s.goals.Create(context.Background(), testUser, input, today)
	if err != nil {
		t.Fatalf("Create goal: %v", err)
	}
	return goal
}

type mockLLM struct {
	reply string
	err   error
}

func (m *mockLLM) Complete(ctx context.Context, prompt string) (llm.Completion, error) {
	if m.err != nil {
		return llm.Completion{}, m.err
	}
	return llm.Completion{Text: m.reply}, nil
}

func (m *mockLLM) CompleteJSON(ctx context.Context, prompt string, v any) error {
	if m.err != nil {
		return m.err
	}
	return json.Unmarshal([]byte(m.reply), v)
}

func (m *mockLLM) Available() bool { return m.err == nil }

type fakeStorage struct {
	objects    map[string][]byte
	presignErr error
}

var _ storage.Storage = (*fakeStorage)(nil)

func (f *fakeStorage) Save(ctx context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) PresignedURL(ctx context.Context, key string) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://storage.example.com/" + key + "?signed", nil
}

// failingTasks breaks task creation so generation has to roll back.
type failingTasks struct {
	repository.TaskRepository
}

func (f failingTasks) WithTx(tx *sqlx.Tx) repository.TaskRepository {
	return failingTasks{f.TaskRepository.WithTx(tx)}
}

func (f failingTasks) Create(ctx context.Context, task *model.Task) error {
	return errors.New("disk full")
}
