package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// sqlitePragmas are appended to SQLite DSNs that don't already set them.
// Immediate transactions serialize writers so concurrent completions queue
// on busy_timeout instead of failing with SQLITE_BUSY.
var sqlitePragmas = []struct {
	key   string
	param string
}{
	{"foreign_keys(", "_pragma=foreign_keys(1)"},
	{"journal_mode(", "_pragma=journal_mode(WAL)"},
	{"busy_timeout(", "_pragma=busy_timeout(5000)"},
	{"_txlock=", "_txlock=immediate"},
}

func Init(driver, connection string) (*sqlx.DB, error) {
	// SQLite: create data directory if needed
	if driver == DriverSQLite {
		path, _, _ := strings.Cut(connection, "?")
		err := os.MkdirAll(filepath.Dir(path), 0755)
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		connection = withSQLitePragmas(connection)
	}

	db, err := sqlx.Connect(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("database connected", "driver", driver)

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func withSQLitePragmas(connection string) string {
	var missing []string
	for _, p := range sqlitePragmas {
		if !strings.Contains(connection, p.key) {
			missing = append(missing, p.param)
		}
	}
	if len(missing) == 0 {
		return connection
	}

	sep := "?"
	if strings.Contains(connection, "?") {
		sep = "&"
	}
	return connection + sep + strings.Join(missing, "&")
}

func Close(db *sqlx.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
