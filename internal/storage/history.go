// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/txexport/internal/export"
)

var (
	// ErrEntryNotFound is returned by Get for unknown ids.
	ErrEntryNotFound = errors.New("history entry not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("history store is closed")
)

// Report kinds.
const (
	KindAccount = "account"
	KindHost    = "host"
)

// DefaultMaxEntries bounds the history table.
const DefaultMaxEntries = 500

// =============================================================================
// HISTORY ENTRY TYPE
// =============================================================================

// HistoryEntry is one recorded export attempt.
type HistoryEntry struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Slug       string
	Kind       string
	Accounts   []string
	URL        string
	Path       string
	Rows       int
	Bytes      int64
	Outcome    export.Outcome
	Error      string
}

// Duration returns how long the attempt took.
func (e HistoryEntry) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// =============================================================================
// HISTORY STORE
// =============================================================================

// HistoryStore persists export attempts in SQLite.
type HistoryStore struct {
	db *sql.DB
	mu sync.Mutex

	// MaxEntries limits stored entries (0 = unlimited)
	MaxEntries int
}

// OpenHistoryStore opens (creating if needed) the history database at path.
func OpenHistoryStore(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &HistoryStore{db: db, MaxEntries: DefaultMaxEntries}, nil
}

// Close closes the database.
func (s *HistoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// RecordExport implements export.Recorder.
func (s *HistoryStore) RecordExport(ctx context.Context, a export.Attempt) error {
	entry := HistoryEntry{
		ID:         uuid.New().String(),
		StartedAt:  a.Started,
		FinishedAt: a.Finished,
		Slug:       a.Target.PathSlug(),
		Kind:       KindAccount,
		Accounts:   a.Target.Accounts,
		URL:        a.URL,
		Path:       a.Path,
		Rows:       a.Rows,
		Bytes:      a.Bytes,
		Outcome:    a.Outcome,
	}
	if a.Target.IsHostReport() {
		entry.Kind = KindHost
	}
	if a.Err != nil {
		entry.Error = a.Err.Error()
	}
	return s.Add(ctx, &entry)
}

// Add inserts an entry, assigning an ID when empty.
func (s *HistoryStore) Add(ctx context.Context, e *HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = e.StartedAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exports (id, started_at, finished_at, slug, kind, accounts, url, path, row_count, bytes, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.StartedAt.UnixNano(), e.FinishedAt.UnixNano(), e.Slug, e.Kind,
		strings.Join(e.Accounts, ","), e.URL, e.Path, e.Rows, e.Bytes, string(e.Outcome), e.Error)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}

	if s.MaxEntries > 0 {
		if err := s.pruneLocked(ctx, s.MaxEntries); err != nil {
			return err
		}
	}
	return nil
}

// Prune keeps the newest keep entries and deletes the rest.
func (s *HistoryStore) Prune(ctx context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}
	return s.pruneLocked(ctx, keep)
}

func (s *HistoryStore) pruneLocked(ctx context.Context, keep int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM exports WHERE id NOT IN (
			SELECT id FROM exports ORDER BY started_at DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

// Clear deletes every entry.
func (s *HistoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM exports`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

const selectColumns = `id, started_at, finished_at, slug, kind, accounts, url, path, row_count, bytes, outcome, error`

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *HistoryStore) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM exports ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns one entry by ID.
func (s *HistoryStore) Get(ctx context.Context, id string) (HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return HistoryEntry{}, ErrClosed
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM exports WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryEntry{}, ErrEntryNotFound
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (HistoryEntry, error) {
	var (
		e                 HistoryEntry
		started, finished int64
		accounts, outcome string
	)
	err := sc.Scan(&e.ID, &started, &finished, &e.Slug, &e.Kind, &accounts,
		&e.URL, &e.Path, &e.Rows, &e.Bytes, &outcome, &e.Error)
	if err != nil {
		return HistoryEntry{}, err
	}
	e.StartedAt = time.Unix(0, started)
	e.FinishedAt = time.Unix(0, finished)
	e.Outcome = export.Outcome(outcome)
	if accounts != "" {
		e.Accounts = strings.Split(accounts, ",")
	}
	return e, nil
}
