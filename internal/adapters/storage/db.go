package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DSNPragmas are appended to every file-backed SQLite DSN.
const DSNPragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"

// DSN builds a modernc SQLite DSN for path with the standard pragmas.
// PRE: path is non-empty
// POST: Returns ":memory:" unchanged, otherwise a file: URI carrying DSNPragmas
func DSN(path string) string {
	if path == ":memory:" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + sep + DSNPragmas
}

// Schema is the member directory schema. Dates are YYYY-MM-DD text so string order equals date order.
const Schema = `
	CREATE TABLE IF NOT EXISTS member (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		join_date TEXT NOT NULL,
		plan_months INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		expiry_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_member_expiry ON member(expiry_date);
	CREATE INDEX IF NOT EXISTS idx_member_created ON member(created_at);
	CREATE INDEX IF NOT EXISTS idx_member_phone ON member(phone);
`

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: member table and indexes exist, WAL mode requested
func InitDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Open opens the SQLite database at path and initializes the schema.
// PRE: path is non-empty
// POST: Returns a ready connection or an error; the caller closes it
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := InitDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
