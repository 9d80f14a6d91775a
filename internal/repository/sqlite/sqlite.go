// Package sqlite implements the repository interfaces on SQLite.
//
// The driver is modernc.org/sqlite (pure Go, no cgo), accessed through sqlx so
// rows scan straight into the db-tagged model structs. SQLite allows a single
// writer; the pool is capped at one connection so per-connection PRAGMAs hold
// for every query and ":memory:" databases are not silently split across
// connections.
package sqlite

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

type DB struct {
	conn *sqlx.DB
}

// New opens the database at dbPath (":memory:" for tests) and migrates it.
func New(dbPath string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	db := &DB{conn: conn}

	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping is used by the health endpoint.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Migrate creates the schema. Every statement is idempotent.
func (db *DB) Migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS exercises (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			sandbox     TEXT NOT NULL DEFAULT 'managed',
			test_cases  TEXT NOT NULL DEFAULT '[]',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating exercises table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS execution_requests (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			exercise_id TEXT REFERENCES exercises(id) ON DELETE CASCADE,
			code        TEXT NOT NULL,
			stdin       TEXT NOT NULL DEFAULT '',
			args        TEXT NOT NULL DEFAULT '',
			sandbox     TEXT NOT NULL DEFAULT 'managed',
			status      TEXT NOT NULL DEFAULT 'pending'
			            CHECK (status IN ('pending', 'running', 'completed', 'failed')),
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_execution_requests_user_id ON execution_requests(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating execution_requests table: %w", err)
	}

	// request_id is UNIQUE: one result per request, enforced by the database.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS execution_results (
			id             TEXT PRIMARY KEY,
			request_id     TEXT NOT NULL UNIQUE REFERENCES execution_requests(id) ON DELETE CASCADE,
			output         TEXT NOT NULL DEFAULT '',
			error          TEXT NOT NULL DEFAULT '',
			execution_time REAL,
			test_results   TEXT,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating execution_results table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			id                  TEXT PRIMARY KEY,
			user_id             TEXT NOT NULL,
			exercise_id         TEXT NOT NULL REFERENCES exercises(id) ON DELETE CASCADE,
			submitted_code      TEXT NOT NULL,
			execution_result_id TEXT REFERENCES execution_results(id) ON DELETE SET NULL,
			is_correct          INTEGER NOT NULL DEFAULT 0,
			submitted_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_submissions_user_exercise ON submissions(user_id, exercise_id);
	`)
	if err != nil {
		return fmt.Errorf("creating submissions table: %w", err)
	}

	return nil
}

// isUniqueViolation matches SQLite's UNIQUE / PRIMARY KEY constraint errors.
// The modernc driver reports them as "constraint failed: UNIQUE constraint
// failed: ..." with extended code 2067 (or 1555 for primary keys).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed") ||
		strings.Contains(msg, "(2067)") || strings.Contains(msg, "(1555)")
}

// isForeignKeyViolation matches SQLite's FOREIGN KEY constraint errors.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
