package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
)

func TestWithSQLitePragmas(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			in:   "./data/app.db",
			want: "./data/app.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate",
		},
		{
			in:   "./data/app.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)",
			want: "./data/app.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate",
		},
		{
			in:   "x.db?_pragma=foreign_keys(0)&_pragma=journal_mode(DELETE)&_pragma=busy_timeout(1)&_txlock=deferred",
			want: "x.db?_pragma=foreign_keys(0)&_pragma=journal_mode(DELETE)&_pragma=busy_timeout(1)&_txlock=deferred",
		},
	}

	for _, tt := range tests {
		if got := withSQLitePragmas(tt.in); got != tt.want {
			t.Errorf("withSQLitePragmas(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := Init(DriverSQLite, filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := RunMigrations(context.Background(), database.DB, DriverSQLite); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	return database
}

func TestRunMigrations_CreatesSchema(t *testing.T) {
	database := openTestDB(t)

	for _, table := range []string{"users", "recurring_goals", "goal_completions", "tasks", "journal_entries", "daily_archives"} {
		var n int
		err := database.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1`, table)
		if err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestMigrateDown(t *testing.T) {
	database := openTestDB(t)

	if err := MigrateDown(context.Background(), database.DB, DriverSQLite); err != nil {
		t.Fatalf("MigrateDown: %v", err)
	}

	var n int
	if err := database.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'recurring_goals'`); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if n != 0 {
		t.Error("recurring_goals still present after MigrateDown")
	}
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	database := openTestDB(t)
	tx := NewTransactor(database)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tx.Do(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (id, email, created_at) VALUES ('u1', 'a@example.com', CURRENT_TIMESTAMP)`)
		if err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Do error = %v, want %v", err, boom)
	}

	var n int
	if err := database.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if n != 0 {
		t.Errorf("users = %d after rollback, want 0", n)
	}
}

func TestTransactor_Commits(t *testing.T) {
	database := openTestDB(t)
	tx := NewTransactor(database)
	ctx := context.Background()

	err := tx.Do(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (id, email, created_at) VALUES ('u1', 'a@example.com', CURRENT_TIMESTAMP)`)
		return err
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	var n int
	if err := database.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if n != 1 {
		t.Errorf("users = %d, want 1", n)
	}
}
