package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS documents (
			name TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			hash TEXT NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS modules (
			code TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			credits INTEGER NOT NULL DEFAULT 0,
			semesters TEXT NOT NULL,
			season TEXT NOT NULL,
			prerequisites TEXT NOT NULL,
			content TEXT NOT NULL,
			source TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS schedule_entries (
			id TEXT PRIMARY KEY,
			module_code TEXT,
			course_number TEXT,
			module_name TEXT NOT NULL,
			semester INTEGER NOT NULL,
			day INTEGER NOT NULL,
			start_minute INTEGER NOT NULL,
			end_minute INTEGER NOT NULL,
			professor TEXT,
			room TEXT,
			room_code TEXT,
			class_type TEXT,
			block_dates TEXT,
			source TEXT,
			line INTEGER,
			position INTEGER NOT NULL,
			FOREIGN KEY (module_code) REFERENCES modules(code) ON DELETE CASCADE,
			CHECK (start_minute < end_minute)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_schedule_module ON schedule_entries(module_code);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			document TEXT NOT NULL,
			offset_pos INTEGER NOT NULL,
			module_code TEXT,
			embedding BLOB NOT NULL
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// execer is the subset of *sql.DB and *sql.Tx the repositories need.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
