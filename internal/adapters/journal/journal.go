// Package journal persists accepted actions in an append-only SQLite table so
// the ledger can be rebuilt after a restart.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/okian/vigia/internal/domain/model"
	"github.com/okian/vigia/pkg/metrics"
)

//go:embed schema.sql
var schema string

// SQLite is an action journal backed by a SQLite file.
type SQLite struct {
	db     *sql.DB
	closed atomic.Bool
}

// Open opens (or creates) the journal at path and applies the schema.
func Open(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// a single connection keeps writes in arrival order
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Write appends a. It fails with ErrDuplicate if a.ID is already journaled.
func (j *SQLite) Write(ctx context.Context, a model.Action) error { //nolint:gocritic // hugeParam: actions are values
	if j.closed.Load() {
		return ErrClosed
	}
	start := time.Now()
	defer func() {
		metrics.RecordJournalLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO actions (
		   id, politician_id, title, description, date_unix_ns, category, impact, source, recorded_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PoliticianID, a.Title, a.Description, a.Date.UnixNano(),
		a.Category, a.Impact, a.Source, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, a.ID)
		}
		metrics.RecordErrorByComponent("journal", "write")
		return fmt.Errorf("insert action %s: %w", a.ID, err)
	}
	return nil
}

// Load returns every journaled action in write order.
func (j *SQLite) Load(ctx context.Context) ([]model.Action, error) {
	if j.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, politician_id, title, description, date_unix_ns, category, impact, source
		   FROM actions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var out []model.Action
	for rows.Next() {
		var (
			a  model.Action
			ns int64
		)
		if err := rows.Scan(&a.ID, &a.PoliticianID, &a.Title, &a.Description, &ns, &a.Category, &a.Impact, &a.Source); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		a.Date = time.Unix(0, ns).UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return out, nil
}

// Count returns the number of journaled actions.
func (j *SQLite) Count(ctx context.Context) (int, error) {
	if j.closed.Load() {
		return 0, ErrClosed
	}
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM actions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count actions: %w", err)
	}
	return n, nil
}

// Close closes the database. Later calls fail with ErrClosed.
func (j *SQLite) Close() error {
	if j == nil || !j.closed.CompareAndSwap(false, true) {
		return nil
	}
	return j.db.Close()
}

func isConstraint(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
