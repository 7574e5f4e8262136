package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages period persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts p and returns its identifier.
func (s *Store) Record(ctx context.Context, p Period) (int64, error) {
	if !p.Type.Valid() {
		return 0, fmt.Errorf("record period: invalid type %v", p.Type)
	}
	if p.FinishedAt.IsZero() {
		return 0, errors.New("record period: finished_at is required")
	}
	if p.StartedAt.IsZero() || p.StartedAt.After(p.FinishedAt) {
		p.StartedAt = p.FinishedAt.Add(-p.Planned)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO periods (kind, cycle, long_break, planned_seconds, started_at, finished_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		kindOf(p.Type),
		int64(p.Cycle),
		p.LongBreak,
		int64(p.Planned/time.Second),
		p.StartedAt.UTC().Format(timeLayout),
		p.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert period: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// List returns the most recent periods, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Period, error) {
	query := `SELECT id, kind, cycle, long_break, planned_seconds, started_at, finished_at
              FROM periods ORDER BY finished_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// Summary aggregates periods finished at or after since.
func (s *Store) Summary(ctx context.Context, since time.Time) (Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(1), COALESCE(SUM(planned_seconds), 0)
         FROM periods WHERE finished_at >= ? GROUP BY kind`,
		since.UTC().Format(timeLayout),
	)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize periods: %w", err)
	}
	defer rows.Close()

	summary := Summary{Since: since}
	for rows.Next() {
		var (
			kind    string
			count   int
			seconds int64
		)
		if err := rows.Scan(&kind, &count, &seconds); err != nil {
			return Summary{}, fmt.Errorf("scan summary: %w", err)
		}
		total := time.Duration(seconds) * time.Second
		if kind == "rest" {
			summary.RestCount, summary.RestTime = count, total
		} else {
			summary.FocusCount, summary.FocusTime = count, total
		}
	}
	return summary, rows.Err()
}

// Prune deletes periods finished before cutoff and reports how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM periods WHERE finished_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune periods: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeriod(row rowScanner) (Period, error) {
	var (
		p         Period
		kind      string
		cycle     int64
		planned   int64
		startedAt string
		finished  string
	)
	if err := row.Scan(&p.ID, &kind, &cycle, &p.LongBreak, &planned, &startedAt, &finished); err != nil {
		return Period{}, fmt.Errorf("scan period: %w", err)
	}
	p.Type = typeOf(kind)
	p.Cycle = uint64(cycle)
	p.Planned = time.Duration(planned) * time.Second
	var err error
	if p.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return Period{}, fmt.Errorf("parse started_at: %w", err)
	}
	if p.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return Period{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return p, nil
}
