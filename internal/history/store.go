// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps an opt-in SQLite log of engine operations.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/docconv/pkg/types"
)

const defaultLimit = 50

// Store manages the history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at cfg.Path and creates the schema
// if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = "docconv.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS operations (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			operation TEXT NOT NULL,
			source_format TEXT,
			target_format TEXT,
			strategy TEXT,
			status TEXT NOT NULL,
			error_kind TEXT,
			input_files INTEGER,
			input_bytes INTEGER,
			output_bytes INTEGER,
			duration_ms INTEGER,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_operations_operation ON operations(operation)`,
		`CREATE INDEX IF NOT EXISTS idx_operations_status ON operations(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts e. A zero CreatedAt is stamped with the current time.
func (s *Store) Record(ctx context.Context, e types.HistoryEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operations (id, operation, source_format, target_format, strategy, status,
			error_kind, input_files, input_bytes, output_bytes, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Operation), string(e.SourceFormat), string(e.TargetFormat), string(e.Strategy),
		string(e.Status), string(e.ErrorKind), e.InputFiles, e.InputBytes, e.OutputBytes,
		e.Duration.Milliseconds(), e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording operation %s: %w", e.ID, err)
	}
	return nil
}

// QueryOptions filters List results.
type QueryOptions struct {
	Operation types.Operation
	Status    types.Status
	Limit     int
}

// List returns recorded operations, newest first.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]types.HistoryEntry, error) {
	var where []string
	var args []any
	if opts.Operation != "" {
		where = append(where, "operation = ?")
		args = append(args, string(opts.Operation))
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}

	q := `SELECT id, operation, source_format, target_format, strategy, status, error_kind,
		input_files, input_bytes, output_bytes, duration_ms, created_at FROM operations`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	q += " ORDER BY rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []types.HistoryEntry
	for rows.Next() {
		var (
			e                                          types.HistoryEntry
			op, src, dst, strategy, status, kind, when string
			durationMS                                 int64
		)
		if err := rows.Scan(&e.ID, &op, &src, &dst, &strategy, &status, &kind,
			&e.InputFiles, &e.InputBytes, &e.OutputBytes, &durationMS, &when); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Operation = types.Operation(op)
		e.SourceFormat = types.Format(src)
		e.TargetFormat = types.Format(dst)
		e.Strategy = types.Strategy(strategy)
		e.Status = types.Status(status)
		e.ErrorKind = types.ErrorKind(kind)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, when)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summary holds per-operation counts.
type Summary struct {
	Operation types.Operation `json:"operation" yaml:"operation"`
	Succeeded int             `json:"succeeded" yaml:"succeeded"`
	Failed    int             `json:"failed" yaml:"failed"`
}

// Summarize counts successes and failures per operation.
func (s *Store) Summarize(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT operation,
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'success' THEN 0 ELSE 1 END)
		 FROM operations GROUP BY operation ORDER BY operation`)
	if err != nil {
		return nil, fmt.Errorf("summarizing history: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var op string
		if err := rows.Scan(&op, &sum.Succeeded, &sum.Failed); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}
		sum.Operation = types.Operation(op)
		out = append(out, sum)
	}
	return out, rows.Err()
}
