// SPDX-License-Identifier: Apache-2.0

// Package history records solved problems and aggregates processing
// statistics over them.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultRecentLimit bounds Recent when the caller passes no limit.
const DefaultRecentLimit = 20

var ErrUnknownDriver = errors.New("unknown history driver")

// Entry is one recorded solve.
type Entry struct {
	ID           string    `json:"id" yaml:"id"`
	Problem      string    `json:"problem" yaml:"problem"`
	Subject      string    `json:"subject" yaml:"subject"`
	SolverUsed   string    `json:"solver_used" yaml:"solver_used"`
	Success      bool      `json:"success" yaml:"success"`
	Error        string    `json:"error,omitempty" yaml:"error,omitempty"`
	ProcessingMS float64   `json:"processing_time_ms" yaml:"processing_time_ms"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// Stats aggregates the whole history.
type Stats struct {
	TotalRequests       int64            `json:"total_requests" yaml:"total_requests"`
	SuccessfulRequests  int64            `json:"successful_requests" yaml:"successful_requests"`
	FailedRequests      int64            `json:"failed_requests" yaml:"failed_requests"`
	AverageProcessingMS float64          `json:"average_processing_time_ms" yaml:"average_processing_time_ms"`
	SolverUsage         map[string]int64 `json:"solver_usage" yaml:"solver_usage"`
	SubjectDistribution map[string]int64 `json:"subject_distribution" yaml:"subject_distribution"`
}

type Store interface {
	// Record stores e, assigning an ID and creation time when unset.
	Record(ctx context.Context, e Entry) (Entry, error)
	Stats(ctx context.Context) (Stats, error)
	// Recent lists the newest entries first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

var openDB = sql.Open

// SQLStore is a Store over database/sql.
type SQLStore struct {
	db       *sql.DB
	postgres bool
	now      func() time.Time
}

var _ Store = (*SQLStore)(nil)

const schema = `CREATE TABLE IF NOT EXISTS solve_history (
	id            TEXT PRIMARY KEY,
	problem       TEXT NOT NULL,
	subject       TEXT NOT NULL,
	solver_used   TEXT NOT NULL,
	success       BOOLEAN NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	processing_ms DOUBLE PRECISION NOT NULL,
	created_at    BIGINT NOT NULL
)`

const createdIndex = `CREATE INDEX IF NOT EXISTS solve_history_created_at ON solve_history (created_at)`

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// Open connects to driver at dsn and ensures the schema exists. The sqlite
// driver takes a file path or ":memory:".
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	var (
		db  *sql.DB
		err error
		s   = &SQLStore{now: time.Now}
	)
	switch strings.ToLower(driver) {
	case DriverSQLite:
		db, err = openDB("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite history: %w", err)
		}
		// One connection keeps ":memory:" databases shared and serializes writers.
		db.SetMaxOpenConns(1)
		for _, p := range sqlitePragmas {
			if _, err := db.ExecContext(ctx, p); err != nil {
				db.Close()
				return nil, fmt.Errorf("set %q: %w", p, err)
			}
		}
	case DriverPostgres, "pgx":
		db, err = openDB("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres history: %w", err)
		}
		s.postgres = true
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	s.db = db

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	for _, stmt := range []string{schema, createdIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create history schema: %w", err)
		}
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV7()).String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO solve_history
		(id, problem, subject, solver_used, success, error, processing_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.Problem, e.Subject, e.SolverUsed, e.Success, e.Error, e.ProcessingMS, e.CreatedAt.UnixNano())
	if err != nil {
		return Entry{}, fmt.Errorf("record solve %s: %w", e.ID, err)
	}
	return e, nil
}

func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{SolverUsage: map[string]int64{}, SubjectDistribution: map[string]int64{}}

	var avg float64
	err := s.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
		COALESCE(AVG(processing_ms), 0)
		FROM solve_history`).Scan(&st.TotalRequests, &st.SuccessfulRequests, &avg)
	if err != nil {
		return Stats{}, fmt.Errorf("query history totals: %w", err)
	}
	st.FailedRequests = st.TotalRequests - st.SuccessfulRequests
	st.AverageProcessingMS = math.Round(avg*1000) / 1000

	if err := s.countBy(ctx, "solver_used", st.SolverUsage); err != nil {
		return Stats{}, err
	}
	if err := s.countBy(ctx, "subject", st.SubjectDistribution); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// countBy fills into with row counts grouped by column. column is always a
// constant from this file.
func (s *SQLStore) countBy(ctx context.Context, column string, into map[string]int64) error {
	rows, err := s.db.QueryContext(ctx, "SELECT "+column+", COUNT(*) FROM solve_history GROUP BY "+column)
	if err != nil {
		return fmt.Errorf("query history by %s: %w", column, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan history by %s: %w", column, err)
		}
		into[key] = n
	}
	return rows.Err()
}

func (s *SQLStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT
		id, problem, subject, solver_used, success, error, processing_ms, created_at
		FROM solve_history ORDER BY created_at DESC, id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("query recent history: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Problem, &e.Subject, &e.SolverUsed, &e.Success, &e.Error, &e.ProcessingMS, &created); err != nil {
			return nil, fmt.Errorf("scan recent history: %w", err)
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	return Rebind(query)
}

// Rebind numbers each ? placeholder in query as $1, $2, ...
func Rebind(query string) string {
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
