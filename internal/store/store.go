// Package store provides the SQLite journal of transitions and explosion
// episodes. The journal is diagnostic; nothing is ever restored from it.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// pragmas apply to every pooled connection. The journal is written by one
// goroutine and read by HTTP handlers, so WAL keeps readers off the writer.
const pragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// Store is the journal database.
type Store struct {
	db   *sql.DB
	path string
}

// New opens the journal at dbPath, creating it if needed, and applies the
// schema.
func New(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("journal path is required")
	}
	dbPath = filepath.Clean(dbPath)

	db, err := sql.Open("sqlite", dbPath+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return s, nil
}

// Path is the database file.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database. Closing a nil Store is a no-op.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}
