package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/nzoschke/cadence/internal/config"
	"github.com/nzoschke/cadence/internal/db"
	"github.com/nzoschke/cadence/internal/llm"
	"github.com/nzoschke/cadence/internal/markdown"
	"github.com/nzoschke/cadence/internal/repository"
	"github.com/nzoschke/cadence/internal/schedule"
	"github.com/nzoschke/cadence/internal/service"
	"github.com/nzoschke/cadence/internal/storage"
)

type App struct {
	Cfg                  *config.Config
	DB                   *sqlx.DB
	Clock                *schedule.Clock
	LLM                  llm.Client
	AuthService          *service.AuthService
	RecurringGoalService *service.RecurringGoalService
	TaskService          *service.TaskService
	ArchiveService       *service.ArchiveService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	week, err := cfg.Week()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone: %v", err)
	}

	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	goalRepository := repository.NewRecurringGoalRepository(database)
	completionRepository := repository.NewGoalCompletionRepository(database)
	taskRepository := repository.NewTaskRepository(database)
	archiveRepository := repository.NewArchiveRepository(database)
	transactor := db.NewTransactor(database)

	// Storage (optional, enables archive export)
	exportStorage, err := storage.New(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// LLM (falls back to canned text when no provider is configured)
	llmClient := llm.NewOpenAI(llm.Config{
		APIKey:   cfg.LLMAPIKey,
		BaseURL:  cfg.LLMBaseURL,
		Model:    cfg.LLMModel,
		Timeout:  cfg.LLMTimeout,
		Fallback: cfg.LLMFallback,
	})

	// Services
	clock := schedule.NewClock(loc)
	authService := service.NewAuthService(userRepository, cfg.JWTSecret, cfg.JWTExpiry)
	goalService := service.NewRecurringGoalService(goalRepository, completionRepository, taskRepository, transactor, week, clock)
	taskService := service.NewTaskService(taskRepository, transactor, llmClient, clock)
	archiveService := service.NewArchiveService(
		archiveRepository,
		taskRepository,
		completionRepository,
		markdown.NewParser(),
		exportStorage,
		clock,
	)

	return &App{
		Cfg:                  cfg,
		DB:                   database,
		Clock:                clock,
		LLM:                  llmClient,
		AuthService:          authService,
		RecurringGoalService: goalService,
		TaskService:          taskService,
		ArchiveService:       archiveService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
