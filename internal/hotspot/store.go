package hotspot

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// openStoreDB is a package-level var to allow test injection.
var openStoreDB = sql.Open

// Config holds hotspot store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default hotspot store configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".cortex")}
}

// Store persists file hotspots, keyed by (file_path, period_start,
// period_end). Re-running analysis for the same window replaces the
// prior rows, so a run is idempotent.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the hotspot store.
func NewStore(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("hotspot: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "cortex.db")
	db, err := openStoreDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("hotspot: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("hotspot: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("hotspot: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS file_hotspots (
			file_path     TEXT NOT NULL,
			period_start  TEXT NOT NULL,
			period_end    TEXT NOT NULL,
			total_commits INTEGER NOT NULL,
			file_edits    INTEGER NOT NULL,
			churn_rate    REAL NOT NULL,
			stability     TEXT NOT NULL,
			lines_changed INTEGER,
			last_modified TEXT,
			PRIMARY KEY (file_path, period_start, period_end)
		);

		CREATE INDEX IF NOT EXISTS idx_hotspot_churn     ON file_hotspots(churn_rate DESC);
		CREATE INDEX IF NOT EXISTS idx_hotspot_stability ON file_hotspots(stability);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveHotspots upserts each hotspot in one transaction (replace
// semantics on the composite key).
func (s *Store) SaveHotspots(hotspots []FileHotspot) error {
	if len(hotspots) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("hotspot: save: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, h := range hotspots {
		if _, err := tx.Exec(
			`INSERT INTO file_hotspots (file_path, period_start, period_end, total_commits, file_edits, churn_rate, stability, lines_changed, last_modified)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(file_path, period_start, period_end) DO UPDATE SET
				total_commits = excluded.total_commits,
				file_edits    = excluded.file_edits,
				churn_rate    = excluded.churn_rate,
				stability     = excluded.stability,
				lines_changed = excluded.lines_changed,
				last_modified = excluded.last_modified`,
			h.FilePath, h.PeriodStart, h.PeriodEnd, h.TotalCommits, h.FileEdits,
			h.ChurnRate, h.Stability, h.LinesChanged, nullEmpty(h.LastModified),
		); err != nil {
			return fmt.Errorf("hotspot: save %s: %w", h.FilePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("hotspot: save: commit: %w", err)
	}
	return nil
}

// GetHotspots returns stored hotspots ordered by churn rate descending.
func (s *Store) GetHotspots(limit int) ([]FileHotspot, error) {
	return s.query(`SELECT file_path, period_start, period_end, total_commits, file_edits, churn_rate, stability,
	                       COALESCE(lines_changed, 0), COALESCE(last_modified, '')
	                FROM file_hotspots ORDER BY churn_rate DESC, file_path LIMIT ?`, limitOrDefault(limit))
}

// GetUnstableFiles returns hotspots classified UNSTABLE, most volatile
// first.
func (s *Store) GetUnstableFiles(limit int) ([]FileHotspot, error) {
	return s.GetHotspotsByStability(StabilityUnstable, limit)
}

// GetHotspotsByStability returns hotspots with the given stability
// class, ordered by churn rate descending.
func (s *Store) GetHotspotsByStability(stability string, limit int) ([]FileHotspot, error) {
	return s.query(`SELECT file_path, period_start, period_end, total_commits, file_edits, churn_rate, stability,
	                       COALESCE(lines_changed, 0), COALESCE(last_modified, '')
	                FROM file_hotspots WHERE stability = ? ORDER BY churn_rate DESC, file_path LIMIT ?`,
		stability, limitOrDefault(limit))
}

func (s *Store) query(sqlStr string, args ...any) ([]FileHotspot, error) {
	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("hotspot: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []FileHotspot
	for rows.Next() {
		var h FileHotspot
		if err := rows.Scan(
			&h.FilePath, &h.PeriodStart, &h.PeriodEnd, &h.TotalCommits,
			&h.FileEdits, &h.ChurnRate, &h.Stability, &h.LinesChanged, &h.LastModified,
		); err != nil {
			return nil, err
		}
		results = append(results, h)
	}
	return results, rows.Err()
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}

func nullEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
