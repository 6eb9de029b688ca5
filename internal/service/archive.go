package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nzoschke/cadence/internal/markdown"
	"github.com/nzoschke/cadence/internal/model"
	"github.com/nzoschke/cadence/internal/repository"
	"github.com/nzoschke/cadence/internal/schedule"
	"github.com/nzoschke/cadence/internal/storage"
	"github.com/nzoschke/cadence/internal/validation"
)

var ErrExportNotConfigured = errors.New("archive export storage not configured")

const (
	DefaultRecentLimit = 7
	MaxRecentLimit     = 90

	MaxJournalLength = 20000
)

// ArchiveInput is the body of a close-out request. Empty fields are filled in.
type ArchiveInput struct {
	Date    string `json:"date"`
	Summary string `json:"summary"`
	Praise  string `json:"praise"`
}

// ExportResult points at an uploaded archive export.
type ExportResult struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// journalMeta is the optional YAML front matter of a journal entry.
type journalMeta struct {
	Mood   *int `yaml:"mood"`
	Energy *int `yaml:"energy"`
}

type ArchiveService struct {
	archives    repository.ArchiveRepository
	tasks       repository.TaskRepository
	completions repository.GoalCompletionRepository
	parser      *markdown.Parser
	storage     storage.Storage
	clock       *schedule.Clock
}

// NewArchiveService builds the service. store may be nil, which disables Export.
func NewArchiveService(
	archives repository.ArchiveRepository,
	tasks repository.TaskRepository,
	completions repository.GoalCompletionRepository,
	parser *markdown.Parser,
	store storage.Storage,
	clock *schedule.Clock,
) *ArchiveService {
	return &ArchiveService{
		archives:    archives,
		tasks:       tasks,
		completions: completions,
		parser:      parser,
		storage:     store,
		clock:       clock,
	}
}

// Journal stores the markdown entry for date, replacing any earlier one.
// Front matter may set mood and energy (1-5).
func (s *ArchiveService) Journal(ctx context.Context, userID, date, body string) (*model.JournalEntry, error) {
	var c validation.Collector
	c.Add(validation.ValidateDate("date", date))
	c.Add(validation.ValidateRequired("body", body))
	c.Add(validation.ValidateMaxLength("body", body, MaxJournalLength))
	err := c.Err()
	if err != nil {
		return nil, err
	}

	var meta journalMeta
	_, err = s.parser.RenderWithFrontmatter([]byte(body), &meta)
	if err != nil {
		return nil, validation.New("body", err.Error())
	}
	if meta.Mood != nil {
		c.Add(validation.ValidateRange("mood", *meta.Mood, 1, 5))
	}
	if meta.Energy != nil {
		c.Add(validation.ValidateRange("energy", *meta.Energy, 1, 5))
	}
	err = c.Err()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.archives.UpsertJournal(ctx, &model.JournalEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		EntryDate: date,
		Body:      body,
		Mood:      meta.Mood,
		Energy:    meta.Energy,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}

	return s.archives.Journal(ctx, userID, date)
}

// Archive closes out a day: it counts the tasks and goal check-ins completed
// on date, renders the journal and stores the result. Re-archiving a day
// overwrites the earlier record.
func (s *ArchiveService) Archive(ctx context.Context, userID string, input ArchiveInput) (*model.ArchiveDay, error) {
	date := input.Date
	if date == "" {
		date = schedule.FormatDate(s.clock.Today())
	}
	var c validation.Collector
	c.Add(validation.ValidateDate("date", date))
	c.Add(validation.ValidateMaxLength("summary", input.Summary, validation.MaxDescriptionLength))
	c.Add(validation.ValidateMaxLength("praise", input.Praise, validation.MaxDescriptionLength))
	err := c.Err()
	if err != nil {
		return nil, err
	}

	day, err := s.collect(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	journalHTML := ""
	if day.Journal != nil {
		html, err := s.parser.Render([]byte(day.Journal.Body))
		if err != nil {
			return nil, fmt.Errorf("failed to render journal: %w", err)
		}
		journalHTML = string(html)
	}

	tasksCompleted := len(day.Tasks)
	goalsCompleted := len(day.Completions)
	summary := input.Summary
	if summary == "" {
		summary = DailySummary(tasksCompleted, goalsCompleted)
	}
	praise := input.Praise
	if praise == "" {
		praise = DailyPraise(tasksCompleted, goalsCompleted)
	}

	now := time.Now()
	err = s.archives.UpsertArchive(ctx, &model.DailyArchive{
		ID:             uuid.New().String(),
		UserID:         userID,
		ArchiveDate:    date,
		TasksCompleted: tasksCompleted,
		GoalsCompleted: goalsCompleted,
		Summary:        summary,
		Praise:         praise,
		JournalHTML:    journalHTML,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save archive: %w", err)
	}

	day.Archive, err = s.archives.Archive(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	return day, nil
}

// Day returns an archived day with the items it counted.
func (s *ArchiveService) Day(ctx context.Context, userID, date string) (*model.ArchiveDay, error) {
	var c validation.Collector
	c.Add(validation.ValidateDate("date", date))
	err := c.Err()
	if err != nil {
		return nil, err
	}

	archive, err := s.archives.Archive(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	day, err := s.collect(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	day.Archive = archive

	return day, nil
}

// collect loads everything completed on date plus the journal, if any.
func (s *ArchiveService) collect(ctx context.Context, userID, date string) (*model.ArchiveDay, error) {
	tasks, err := s.tasks.CompletedOn(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed tasks: %w", err)
	}

	completions, err := s.completions.CompletedOn(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load goal completions: %w", err)
	}

	journal, err := s.archives.Journal(ctx, userID, date)
	if errors.Is(err, repository.ErrJournalNotFound) {
		journal, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load journal: %w", err)
	}

	return &model.ArchiveDay{
		Tasks:       tasks,
		Completions: completions,
		Journal:     journal,
	}, nil
}

func (s *ArchiveService) Recent(ctx context.Context, userID string, limit int) ([]*model.DailyArchive, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	limit = min(limit, MaxRecentLimit)

	return s.archives.Recent(ctx, userID, limit)
}

// Export uploads every archived day as one JSON document and returns a
// presigned link to it.
func (s *ArchiveService) Export(ctx context.Context, userID string) (*ExportResult, error) {
	if s.storage == nil {
		return nil, ErrExportNotConfigured
	}

	archives, err := s.archives.All(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load archives: %w", err)
	}

	data, err := json.Marshal(map[string]any{
		"user_id":     userID,
		"exported_at": s.clock.Now().UTC(),
		"archives":    archives,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", userID, s.clock.Now().UTC().Format("20060102T150405Z"))
	err = s.storage.Save(ctx, key, "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := s.storage.PresignedURL(ctx, key)
	if err != nil {
		delErr := s.storage.Delete(ctx, key)
		if delErr != nil {
			slog.Error("failed to delete export after presign failure", "error", delErr, "key", key)
		}
		return nil, fmt.Errorf("failed to presign export: %w", err)
	}

	return &ExportResult{Key: key, URL: url, Count: len(archives)}, nil
}

// DailySummary describes a day's output in one line.
func DailySummary(tasksCompleted, goalsCompleted int) string {
	return fmt.Sprintf("Completed %d %s and %d %s.",
		tasksCompleted, plural(tasksCompleted, "task"),
		goalsCompleted, plural(goalsCompleted, "goal"))
}

// DailyPraise picks an encouraging line scaled to how much got done.
func DailyPraise(tasksCompleted, goalsCompleted int) string {
	total := tasksCompleted + goalsCompleted

	switch {
	case total == 0:
		return "Tomorrow is a new day! Sometimes rest is just as important as productivity."
	case total <= 2:
		return fmt.Sprintf("You made progress today with %d %s completed! Every step forward counts.", total, plural(total, "item"))
	case total <= 5:
		return fmt.Sprintf("Great day! You completed %d items. You're building momentum!", total)
	case total <= 10:
		return fmt.Sprintf("Impressive! %d items completed. You're on fire!", total)
	default:
		return fmt.Sprintf("Wow! %d items completed today! Take a moment to celebrate this achievement!", total)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
