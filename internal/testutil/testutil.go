// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nzoschke/cadence/internal/db"
	"github.com/nzoschke/cadence/internal/model"
)

// NewTestDB returns a migrated SQLite database in a temp dir. A file is used
// rather than :memory: so every pooled connection sees the same schema.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Init(db.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})

	err = db.RunMigrations(context.Background(), database.DB, db.DriverSQLite)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return database
}

// CreateUser inserts a user row so foreign keys resolve.
func CreateUser(t *testing.T, database *sqlx.DB, id string) *model.User {
	t.Helper()

	user := &model.User{
		ID:        id,
		Email:     id + "@example.com",
		CreatedAt: time.Now(),
	}
	_, err := database.Exec(`INSERT INTO users (id, email, created_at) VALUES ($1, $2, $3)`, user.ID, user.Email, user.CreatedAt)
	if err != nil {
		t.Fatalf("failed to create user %s: %v", id, err)
	}

	return user
}
