// Package archive persists completed detection cycles and their trends
// in SQLite. It backs the MCP history tool and gives the corroborator
// known-terms context after a restart, when the in-memory history is
// empty.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"trendwatch/internal/trends"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// CycleOutcome labels how a cycle terminated.
type CycleOutcome string

const (
	OutcomeSuccess  CycleOutcome = "success"
	OutcomeFallback CycleOutcome = "fallback"
	OutcomeFailed   CycleOutcome = "failed"
)

// CycleRecord is one archived detection cycle.
type CycleRecord struct {
	ID        string         `json:"id"`
	StartedAt time.Time      `json:"started_at"`
	Outcome   CycleOutcome   `json:"outcome"`
	PostCount int            `json:"post_count"`
	Published bool           `json:"published"`
	Trends    []trends.Trend `json:"trends,omitempty"`
}

// Store is the SQLite-backed cycle archive.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the archive database at path.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}
	// modernc sqlite is not safe for concurrent writers on one file.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS cycles (
	id         TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	post_count INTEGER NOT NULL,
	published  INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS cycle_trends (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	cycle_id     TEXT NOT NULL REFERENCES cycles(id),
	term         TEXT NOT NULL,
	count        INTEGER NOT NULL,
	growth_rate  REAL NOT NULL,
	is_new       INTEGER NOT NULL,
	category     TEXT,
	sentiment    TEXT,
	context      TEXT,
	is_synthetic INTEGER NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cycle_trends_cycle ON cycle_trends(cycle_id);
CREATE INDEX IF NOT EXISTS idx_cycle_trends_created ON cycle_trends(created_at);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrating archive schema: %w", err)
	}
	return nil
}

// RecordCycle persists a completed cycle and its trends. A missing ID
// is filled with a fresh UUID; the record's ID is returned.
func (s *Store) RecordCycle(ctx context.Context, rec CycleRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("starting archive transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cycles (id, started_at, outcome, post_count, published) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.UTC().Format(time.RFC3339), string(rec.Outcome), rec.PostCount, boolToInt(rec.Published),
	)
	if err != nil {
		return "", fmt.Errorf("inserting cycle: %w", err)
	}

	for _, t := range rec.Trends {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO cycle_trends
			 (cycle_id, term, count, growth_rate, is_new, category, sentiment, context, is_synthetic, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, t.Term, t.Count, t.GrowthRate, boolToInt(t.IsNew),
			t.Category, string(t.Sentiment), t.Context, boolToInt(t.IsSynthetic),
			t.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return "", fmt.Errorf("inserting trend %s: %w", t.Term, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing cycle: %w", err)
	}
	return rec.ID, nil
}

// RecentCycles returns the n most recent cycles, newest first, with
// their trends attached.
func (s *Store) RecentCycles(ctx context.Context, n int) ([]CycleRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, outcome, post_count, published
		 FROM cycles ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying cycles: %w", err)
	}
	defer rows.Close()

	var records []CycleRecord
	for rows.Next() {
		var rec CycleRecord
		var startedAt string
		var published int
		if err := rows.Scan(&rec.ID, &startedAt, (*string)(&rec.Outcome), &rec.PostCount, &published); err != nil {
			return nil, fmt.Errorf("scanning cycle: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		rec.Published = published != 0
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cycles: %w", err)
	}

	for i := range records {
		trendsList, err := s.cycleTrends(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Trends = trendsList
	}
	return records, nil
}

// TrendsSince returns all archived trends created at or after t,
// newest first.
func (s *Store) TrendsSince(ctx context.Context, t time.Time) ([]trends.Trend, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, count, growth_rate, is_new, category, sentiment, context, is_synthetic, created_at
		 FROM cycle_trends WHERE created_at >= ? ORDER BY created_at DESC`,
		t.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("querying trends: %w", err)
	}
	defer rows.Close()
	return scanTrends(rows)
}

// RecentTerms returns up to limit distinct terms from the archive,
// newest first. Used to seed the corroborator's known-terms context
// when the process restarts with an empty in-memory history.
func (s *Store) RecentTerms(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term FROM cycle_trends GROUP BY term ORDER BY MAX(created_at) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent terms: %w", err)
	}
	defer rows.Close()

	var terms []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("scanning term: %w", err)
		}
		terms = append(terms, term)
	}
	return terms, rows.Err()
}

func (s *Store) cycleTrends(ctx context.Context, cycleID string) ([]trends.Trend, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, count, growth_rate, is_new, category, sentiment, context, is_synthetic, created_at
		 FROM cycle_trends WHERE cycle_id = ? ORDER BY growth_rate DESC`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("querying cycle trends: %w", err)
	}
	defer rows.Close()
	return scanTrends(rows)
}

func scanTrends(rows *sql.Rows) ([]trends.Trend, error) {
	var list []trends.Trend
	for rows.Next() {
		var t trends.Trend
		var isNew, isSynthetic int
		var sentiment, createdAt string
		if err := rows.Scan(&t.Term, &t.Count, &t.GrowthRate, &isNew,
			&t.Category, &sentiment, &t.Context, &isSynthetic, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning trend: %w", err)
		}
		t.IsNew = isNew != 0
		t.IsSynthetic = isSynthetic != 0
		t.Sentiment = trends.Sentiment(sentiment)
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		list = append(list, t)
	}
	return list, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
