// Package sqlite stores submission records in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/akashicode/solvesafe/internal/apperr"
	"github.com/akashicode/solvesafe/internal/models"
)

// Store implements submission persistence on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database in WAL mode with a busy timeout, creating the file
// and its parent directory when missing.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One writer at a time; a single connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS submissions (
	token TEXT PRIMARY KEY,
	source_ref TEXT NOT NULL,
	result_ref TEXT NOT NULL,
	enrollment TEXT NOT NULL,
	name TEXT NOT NULL,
	batch TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Create inserts sub. An existing token leaves the table untouched.
func (s *Store) Create(ctx context.Context, sub *models.Submission) error {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO submissions (token, source_ref, result_ref, enrollment, name, batch, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(token) DO NOTHING`,
		sub.Token,
		sub.SourceDocumentRef,
		sub.ResultDocumentRef,
		sub.Metadata.Enrollment,
		sub.Metadata.Name,
		sub.Metadata.Batch,
		sub.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("insert submission %s: %w", sub.Token, apperr.ErrDuplicate)
	}
	return nil
}

// FindByToken loads the record for token in one query.
func (s *Store) FindByToken(ctx context.Context, token string) (*models.Submission, error) {
	var (
		sub     models.Submission
		created string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT token, source_ref, result_ref, enrollment, name, batch, created_at
FROM submissions WHERE token = ?`, token).Scan(
		&sub.Token,
		&sub.SourceDocumentRef,
		&sub.ResultDocumentRef,
		&sub.Metadata.Enrollment,
		&sub.Metadata.Name,
		&sub.Metadata.Batch,
		&created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query submission: %w", err)
	}

	sub.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return &sub, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
