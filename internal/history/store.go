// Package history persists completed audit runs in SQLite so the service
// can report trends and recent activity across restarts.
//
// History is an optional subsystem: if the store cannot be opened the
// server keeps auditing without it.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pageaudit/pageaudit/internal/pipeline"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Config holds history store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig stores history under ~/.pageaudit.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".pageaudit")}
}

// Store is the run-history engine backed by SQLite.
type Store struct {
	db *sql.DB
}

// New creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "history.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("history: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			url         TEXT NOT NULL,
			score       REAL NOT NULL,
			grade       TEXT NOT NULL,
			state       TEXT NOT NULL,
			cache_hit   INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			result_json TEXT NOT NULL,
			created_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
		CREATE INDEX IF NOT EXISTS idx_runs_url ON runs(url);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Run is a compact view of one persisted audit run.
type Run struct {
	ID         string  `json:"id"`
	URL        string  `json:"url"`
	Score      float64 `json:"score"`
	Grade      string  `json:"grade"`
	State      string  `json:"state"`
	CacheHit   bool    `json:"cache_hit"`
	DurationMs int64   `json:"duration_ms"`
	CreatedAt  string  `json:"created_at"`
}

// Record persists one completed pipeline result.
func (s *Store) Record(res *pipeline.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("history: marshal result: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO runs (id, url, score, grade, state, cache_hit, duration_ms, result_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		res.Metadata.URL,
		res.OverallScore,
		string(res.Grade),
		string(res.Metadata.State),
		boolToInt(res.Metadata.CacheHit),
		res.Metadata.Stages.TotalMs,
		string(payload),
		res.Metadata.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, url, score, grade, state, cache_hit, duration_ms, created_at
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var cacheHit int
		if err := rows.Scan(&r.ID, &r.URL, &r.Score, &r.Grade, &r.State, &cacheHit, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		r.CacheHit = cacheHit != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Stats holds aggregate history statistics.
type Stats struct {
	TotalRuns     int            `json:"total_runs"`
	FailedRuns    int            `json:"failed_runs"`
	AvgScore      float64        `json:"avg_score"`
	AvgDurationMs int64          `json:"avg_duration_ms"`
	Grades        map[string]int `json:"grades"`
}

// Stats computes aggregates over everything recorded so far.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{Grades: make(map[string]int)}

	row := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN state = 'failed' THEN 1 ELSE 0 END), 0),
		        COALESCE(AVG(score), 0),
		        COALESCE(AVG(duration_ms), 0)
		 FROM runs`)
	var avgDuration float64
	if err := row.Scan(&st.TotalRuns, &st.FailedRuns, &st.AvgScore, &avgDuration); err != nil {
		return nil, fmt.Errorf("history: stats: %w", err)
	}
	st.AvgDurationMs = int64(avgDuration)

	rows, err := s.db.Query(`SELECT grade, COUNT(*) FROM runs GROUP BY grade`)
	if err != nil {
		return nil, fmt.Errorf("history: grade distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var grade string
		var count int
		if err := rows.Scan(&grade, &count); err != nil {
			return nil, fmt.Errorf("history: scan grade: %w", err)
		}
		st.Grades[grade] = count
	}
	return st, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
