package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/nzoschke/cadence/internal/model"
)

var (
	ErrArchiveNotFound = errors.New("archive not found")
	ErrJournalNotFound = errors.New("journal entry not found")
)

type ArchiveRepository interface {
	UpsertJournal(ctx context.Context, entry *model.JournalEntry) error
	Journal(ctx context.Context, userID, date string) (*model.JournalEntry, error)
	UpsertArchive(ctx context.Context, archive *model.DailyArchive) error
	Archive(ctx context.Context, userID, date string) (*model.DailyArchive, error)
	Recent(ctx context.Context, userID string, limit int) ([]*model.DailyArchive, error)
	All(ctx context.Context, userID string) ([]*model.DailyArchive, error)
}

type archiveRepository struct {
	db *sqlx.DB
}

func NewArchiveRepository(db *sqlx.DB) ArchiveRepository {
	return &archiveRepository{db: db}
}

// UpsertJournal keeps one entry per user and day; a second write replaces the body.
func (r *archiveRepository) UpsertJournal(ctx context.Context, entry *model.JournalEntry) error {
	query := `INSERT INTO journal_entries (id, user_id, entry_date, body, mood, energy, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (user_id, entry_date) DO UPDATE
	          SET body = excluded.body, mood = excluded.mood, energy = excluded.energy, updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.EntryDate,
		entry.Body,
		entry.Mood,
		entry.Energy,
		entry.CreatedAt,
		entry.UpdatedAt,
	)

	return err
}

func (r *archiveRepository) Journal(ctx context.Context, userID, date string) (*model.JournalEntry, error) {
	entry := &model.JournalEntry{}
	query := `SELECT * FROM journal_entries WHERE user_id = $1 AND entry_date = $2`

	err := r.db.GetContext(ctx, entry, query, userID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJournalNotFound
	}
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (r *archiveRepository) UpsertArchive(ctx context.Context, archive *model.DailyArchive) error {
	query := `INSERT INTO daily_archives (
	              id, user_id, archive_date, tasks_completed, goals_completed, summary, praise, journal_html,
	              created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          ON CONFLICT (user_id, archive_date) DO UPDATE
	          SET tasks_completed = excluded.tasks_completed, goals_completed = excluded.goals_completed,
	              summary = excluded.summary, praise = excluded.praise, journal_html = excluded.journal_html,
	              updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		archive.ID,
		archive.UserID,
		archive.ArchiveDate,
		archive.TasksCompleted,
		archive.GoalsCompleted,
		archive.Summary,
		archive.Praise,
		archive.JournalHTML,
		archive.CreatedAt,
		archive.UpdatedAt,
	)

	return err
}

func (r *archiveRepository) Archive(ctx context.Context, userID, date string) (*model.DailyArchive, error) {
	archive := &model.DailyArchive{}
	query := `SELECT * FROM daily_archives WHERE user_id = $1 AND archive_date = $2`

	err := r.db.GetContext(ctx, archive, query, userID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArchiveNotFound
	}
	if err != nil {
		return nil, err
	}

	return archive, nil
}

func (r *archiveRepository) Recent(ctx context.Context, userID string, limit int) ([]*model.DailyArchive, error) {
	archives := []*model.DailyArchive{}
	query := `SELECT * FROM daily_archives WHERE user_id = $1 ORDER BY archive_date DESC LIMIT $2`

	err := r.db.SelectContext(ctx, &archives, query, userID, limit)
	if err != nil {
		return nil, err
	}

	return archives, nil
}

func (r *archiveRepository) All(ctx context.Context, userID string) ([]*model.DailyArchive, error) {
	archives := []*model.DailyArchive{}
	query := `SELECT * FROM daily_archives WHERE user_id = $1 ORDER BY archive_date ASC`

	err := r.db.SelectContext(ctx, &archives, query, userID)
	if err != nil {
		return nil, err
	}

	return archives, nil
}
