// Package pattern implements the Tier 2 knowledge graph: long-lived,
// confidence-scored, namespace-tagged learned patterns with full-text
// search.
//
// It uses SQLite with an FTS5 index over (title, content) for BM25
// ranking. Namespace membership lives in a normalized join table so that
// membership tests are exact, not substring matches against a serialized
// list.
package pattern

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// DefaultNamespace is assigned to patterns that carry no namespace.
// Cross-cutting framework knowledge lives here.
const DefaultNamespace = "CORTEX-core"

// Scope values for patterns.
const (
	ScopeCortex      = "cortex"
	ScopeApplication = "application"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Pattern is a single learned pattern in the knowledge graph.
type Pattern struct {
	ID           string            `json:"pattern_id"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	Type         string            `json:"pattern_type"`
	Confidence   float64           `json:"confidence"`
	CreatedAt    string            `json:"created_at"`
	LastAccessed *string           `json:"last_accessed,omitempty"`
	AccessCount  int               `json:"access_count"`
	Source       string            `json:"source,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Pinned       bool              `json:"is_pinned"`
	Scope        string            `json:"scope"`
	Namespaces   []string          `json:"namespaces"`
}

// SearchResult embeds a Pattern with its FTS5 rank. Rank follows the
// index convention (lower = better match); WeightedScore is populated by
// namespace-priority search on a higher-is-better scale.
type SearchResult struct {
	Pattern
	Rank          float64 `json:"rank"`
	WeightedScore float64 `json:"weighted_score,omitempty"`
}

// SearchOptions holds filters for full-text pattern search.
type SearchOptions struct {
	// MinConfidence drops patterns below this confidence. Zero admits
	// everything; use DefaultSearchOptions for the stock 0.5 floor.
	MinConfidence float64
	// Scope, if set, is an exact-match filter (cortex | application).
	Scope string
	// Namespaces, if non-empty, is an OR-membership filter: a pattern
	// matches when any of its namespaces appears in the list.
	Namespaces []string
	// Limit caps the result count (default 10).
	Limit int
}

// DefaultSearchOptions returns the stock search filters: confidence
// floor 0.5, limit 10, no scope or namespace restriction.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{MinConfidence: 0.5, Limit: 10}
}

// Stats holds aggregate knowledge-graph statistics.
type Stats struct {
	TotalPatterns int      `json:"total_patterns"`
	PinnedCount   int      `json:"pinned_count"`
	Namespaces    []string `json:"namespaces"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds pattern store configuration.
type Config struct {
	DataDir          string
	MaxSearchResults int
	// MinConfidence is the default confidence floor applied when a
	// caller does not supply one. Zero or negative falls back to 0.5.
	MinConfidence float64
}

// DefaultConfig returns the default pattern store configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".cortex"),
		MaxSearchResults: 50,
		MinConfidence:    0.5,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent pattern engine backed by SQLite + FTS5.
type Store struct {
	db  *sql.DB
	cfg Config
	now func() time.Time
}

// New creates a Store with the given configuration. It creates the data
// directory if needed, opens SQLite with WAL mode, and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("pattern: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "cortex.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("pattern: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("pattern: pragma %q: %w", p, err)
		}
	}

	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.5
	}
	s := &Store{db: db, cfg: cfg, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("pattern: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// MinConfidence reports the configured default confidence floor.
func (s *Store) MinConfidence() float64 {
	return s.cfg.MinConfidence
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS patterns (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			pattern_id    TEXT    NOT NULL UNIQUE,
			title         TEXT    NOT NULL,
			content       TEXT    NOT NULL,
			pattern_type  TEXT    NOT NULL DEFAULT 'general',
			confidence    REAL    NOT NULL DEFAULT 0.5,
			created_at    TEXT    NOT NULL DEFAULT (datetime('now')),
			last_accessed TEXT,
			access_count  INTEGER NOT NULL DEFAULT 0,
			source        TEXT,
			metadata      TEXT,
			is_pinned     INTEGER NOT NULL DEFAULT 0,
			scope         TEXT    NOT NULL DEFAULT 'cortex'
		);

		CREATE INDEX IF NOT EXISTS idx_patterns_type       ON patterns(pattern_type);
		CREATE INDEX IF NOT EXISTS idx_patterns_scope      ON patterns(scope);
		CREATE INDEX IF NOT EXISTS idx_patterns_confidence ON patterns(confidence DESC);

		CREATE TABLE IF NOT EXISTS pattern_namespaces (
			pattern_rowid INTEGER NOT NULL,
			namespace     TEXT    NOT NULL,
			position      INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (pattern_rowid, namespace),
			FOREIGN KEY (pattern_rowid) REFERENCES patterns(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_ns_lookup ON pattern_namespaces(namespace, pattern_rowid);

		CREATE VIRTUAL TABLE IF NOT EXISTS patterns_fts USING fts5(
			title,
			content,
			content='patterns',
			content_rowid='id'
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS triggers keep the index exactly in sync with the base table.
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='patterns_fts_insert'",
	).Scan(&name)

	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER patterns_fts_insert AFTER INSERT ON patterns BEGIN
				INSERT INTO patterns_fts(rowid, title, content)
				VALUES (new.id, new.title, new.content);
			END;

			CREATE TRIGGER patterns_fts_delete AFTER DELETE ON patterns BEGIN
				INSERT INTO patterns_fts(patterns_fts, rowid, title, content)
				VALUES ('delete', old.id, old.title, old.content);
			END;

			CREATE TRIGGER patterns_fts_update AFTER UPDATE ON patterns BEGIN
				INSERT INTO patterns_fts(patterns_fts, rowid, title, content)
				VALUES ('delete', old.id, old.title, old.content);
				INSERT INTO patterns_fts(rowid, title, content)
				VALUES (new.id, new.title, new.content);
			END;
		`
		if _, err := s.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}

// ─── Write Path ──────────────────────────────────────────────────────────────

// Upsert persists a pattern and its namespace memberships in one
// transaction. The FTS index is maintained by triggers inside the same
// transaction, so the pattern and its index entry commit or fail
// together. Confidence is clamped to [0,1]; empty namespaces default to
// DefaultNamespace.
func (s *Store) Upsert(p Pattern) error {
	if p.ID == "" {
		return fmt.Errorf("pattern: upsert: pattern_id is required")
	}
	if p.Scope == "" {
		p.Scope = ScopeCortex
	}
	if p.Type == "" {
		p.Type = "general"
	}
	namespaces := p.Namespaces
	if len(namespaces) == 0 {
		namespaces = []string{DefaultNamespace}
	}

	meta, err := encodeMetadata(p.Metadata)
	if err != nil {
		return fmt.Errorf("pattern: upsert %s: %w", p.ID, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("pattern: upsert %s: begin tx: %w", p.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO patterns (pattern_id, title, content, pattern_type, confidence, source, metadata, is_pinned, scope)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(pattern_id) DO UPDATE SET
			title        = excluded.title,
			content      = excluded.content,
			pattern_type = excluded.pattern_type,
			confidence   = excluded.confidence,
			source       = excluded.source,
			metadata     = excluded.metadata,
			is_pinned    = excluded.is_pinned,
			scope        = excluded.scope`,
		p.ID, p.Title, p.Content, p.Type, clampConfidence(p.Confidence),
		nullableString(p.Source), meta, boolToInt(p.Pinned), p.Scope,
	); err != nil {
		return fmt.Errorf("pattern: upsert %s: %w", p.ID, err)
	}

	var rowid int64
	if err := tx.QueryRow(`SELECT id FROM patterns WHERE pattern_id = ?`, p.ID).Scan(&rowid); err != nil {
		return fmt.Errorf("pattern: upsert %s: resolve rowid: %w", p.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM pattern_namespaces WHERE pattern_rowid = ?`, rowid); err != nil {
		return fmt.Errorf("pattern: upsert %s: clear namespaces: %w", p.ID, err)
	}
	for i, ns := range namespaces {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO pattern_namespaces (pattern_rowid, namespace, position) VALUES (?, ?, ?)`,
			rowid, ns, i,
		); err != nil {
			return fmt.Errorf("pattern: upsert %s: namespace %q: %w", p.ID, ns, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pattern: upsert %s: commit: %w", p.ID, err)
	}
	return nil
}

// Get retrieves a pattern by its pattern_id and records the access
// (last_accessed is set, access_count is incremented).
func (s *Store) Get(patternID string) (*Pattern, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("pattern: get %s: begin tx: %w", patternID, err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRow(patternSelect+` WHERE p.pattern_id = ?`, patternID)
	p, rowid, err := scanPattern(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pattern: %s not found", patternID)
	}
	if err != nil {
		return nil, fmt.Errorf("pattern: get %s: %w", patternID, err)
	}
	if p.Namespaces, err = namespacesVia(tx, rowid); err != nil {
		return nil, fmt.Errorf("pattern: get %s: %w", patternID, err)
	}

	ts := formatTime(s.now())
	if _, err := tx.Exec(
		`UPDATE patterns SET last_accessed = ?, access_count = access_count + 1 WHERE pattern_id = ?`,
		ts, patternID,
	); err != nil {
		return nil, fmt.Errorf("pattern: get %s: record access: %w", patternID, err)
	}
	p.AccessCount++
	p.LastAccessed = &ts

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("pattern: get %s: commit: %w", patternID, err)
	}
	return p, nil
}

// Reinforce adjusts a pattern's confidence by delta, clamped to [0,1].
func (s *Store) Reinforce(patternID string, delta float64) error {
	res, err := s.db.Exec(
		`UPDATE patterns SET confidence = max(0.0, min(1.0, confidence + ?)) WHERE pattern_id = ?`,
		delta, patternID,
	)
	if err != nil {
		return fmt.Errorf("pattern: reinforce %s: %w", patternID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("pattern: %s not found", patternID)
	}
	return nil
}

// ─── Search (FTS5) ───────────────────────────────────────────────────────────

// Search performs full-text pattern search, best match first.
//
// The query uses native FTS5 syntax (AND/OR/NOT, "phrase", prefix*); a
// malformed query surfaces as *QuerySyntaxError, never as an empty
// result. Ties are broken by rowid so identical inputs always produce
// identically ordered results.
func (s *Store) Search(query string, opts SearchOptions) ([]SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if s.cfg.MaxSearchResults > 0 && limit > s.cfg.MaxSearchResults {
		limit = s.cfg.MaxSearchResults
	}

	sqlStr := `
		SELECT p.id, p.pattern_id, p.title, p.content, p.pattern_type, p.confidence,
		       p.created_at, p.last_accessed, p.access_count, p.source, p.metadata,
		       p.is_pinned, p.scope, fts.rank
		FROM patterns_fts fts
		JOIN patterns p ON p.id = fts.rowid
		WHERE patterns_fts MATCH ?
		  AND p.confidence >= ?
	`
	args := []any{query, opts.MinConfidence}

	if opts.Scope != "" {
		sqlStr += " AND p.scope = ?"
		args = append(args, opts.Scope)
	}
	if len(opts.Namespaces) > 0 {
		sqlStr += ` AND EXISTS (
			SELECT 1 FROM pattern_namespaces pn
			WHERE pn.pattern_rowid = p.id AND pn.namespace IN (` + placeholders(len(opts.Namespaces)) + `))`
		for _, ns := range opts.Namespaces {
			args = append(args, ns)
		}
	}

	sqlStr += " ORDER BY fts.rank, p.id LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		if isFTSSyntaxError(err) {
			return nil, &QuerySyntaxError{Query: query, Err: err}
		}
		return nil, fmt.Errorf("pattern: search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	var rowids []int64
	for rows.Next() {
		var sr SearchResult
		var rowid int64
		var lastAccessed, source, meta sql.NullString
		var pinned int
		if err := rows.Scan(
			&rowid, &sr.ID, &sr.Title, &sr.Content, &sr.Type, &sr.Confidence,
			&sr.CreatedAt, &lastAccessed, &sr.AccessCount, &source, &meta,
			&pinned, &sr.Scope, &sr.Rank,
		); err != nil {
			return nil, fmt.Errorf("pattern: search: scan: %w", err)
		}
		fillOptional(&sr.Pattern, lastAccessed, source, meta, pinned)
		results = append(results, sr)
		rowids = append(rowids, rowid)
	}
	if err := rows.Err(); err != nil {
		if isFTSSyntaxError(err) {
			return nil, &QuerySyntaxError{Query: query, Err: err}
		}
		return nil, fmt.Errorf("pattern: search: %w", err)
	}

	for i := range results {
		ns, err := s.namespacesFor(rowids[i])
		if err != nil {
			return nil, err
		}
		results[i].Namespaces = ns
	}
	return results, nil
}

// Namespace weights for priority re-ranking. Patterns outside the
// current namespace and the core are deprioritized, not hidden.
const (
	weightCurrent = 2.0
	weightCore    = 1.5
	weightOther   = 0.5
)

// SearchWithNamespacePriority searches and then re-ranks results to
// favor the caller's working context: patterns in currentNamespace get
// weight 2.0, DefaultNamespace (when includeCore) 1.5, everything else
// 0.5. It over-fetches 3x the limit for re-ranking headroom; when fewer
// candidates exist, all of them are re-ranked and returned.
func (s *Store) SearchWithNamespacePriority(query, currentNamespace string, includeCore bool, minConfidence float64, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	candidates, err := s.Search(query, SearchOptions{
		MinConfidence: minConfidence,
		Limit:         limit * 3,
	})
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		w := namespaceWeight(candidates[i].Namespaces, currentNamespace, includeCore)
		// FTS5 rank is negative with lower = better; negate to a
		// positive higher-is-better relevance before weighting.
		candidates[i].WeightedScore = -candidates[i].Rank * w
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].WeightedScore > candidates[j].WeightedScore
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func namespaceWeight(namespaces []string, current string, includeCore bool) float64 {
	if current != "" && containsString(namespaces, current) {
		return weightCurrent
	}
	if includeCore && containsString(namespaces, DefaultNamespace) {
		return weightCore
	}
	return weightOther
}

// ByNamespace returns every pattern in a namespace ordered by
// (confidence desc, last_accessed desc) — no full-text ranking.
func (s *Store) ByNamespace(namespace string, minConfidence float64, limit int) ([]Pattern, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(patternSelect+`
		JOIN pattern_namespaces pn ON pn.pattern_rowid = p.id
		WHERE pn.namespace = ? AND p.confidence >= ?
		ORDER BY p.confidence DESC, p.last_accessed DESC
		LIMIT ?`,
		namespace, minConfidence, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("pattern: by namespace %q: %w", namespace, err)
	}
	return s.collectPatterns(rows)
}

// ─── Batch Access (Migrator support) ─────────────────────────────────────────

// All returns every pattern in the store ordered by rowid. Used by the
// namespace migrator for batch reclassification.
func (s *Store) All() ([]Pattern, error) {
	rows, err := s.db.Query(patternSelect + ` ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("pattern: all: %w", err)
	}
	return s.collectPatterns(rows)
}

// ReplaceNamespaces rewrites a pattern's namespace memberships.
func (s *Store) ReplaceNamespaces(patternID string, namespaces []string) error {
	if len(namespaces) == 0 {
		namespaces = []string{DefaultNamespace}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("pattern: replace namespaces %s: begin tx: %w", patternID, err)
	}
	defer func() { _ = tx.Rollback() }()

	var rowid int64
	err = tx.QueryRow(`SELECT id FROM patterns WHERE pattern_id = ?`, patternID).Scan(&rowid)
	if err == sql.ErrNoRows {
		return fmt.Errorf("pattern: %s not found", patternID)
	}
	if err != nil {
		return fmt.Errorf("pattern: replace namespaces %s: %w", patternID, err)
	}

	if _, err := tx.Exec(`DELETE FROM pattern_namespaces WHERE pattern_rowid = ?`, rowid); err != nil {
		return fmt.Errorf("pattern: replace namespaces %s: %w", patternID, err)
	}
	for i, ns := range namespaces {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO pattern_namespaces (pattern_rowid, namespace, position) VALUES (?, ?, ?)`,
			rowid, ns, i,
		); err != nil {
			return fmt.Errorf("pattern: replace namespaces %s: %w", patternID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pattern: replace namespaces %s: commit: %w", patternID, err)
	}
	return nil
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate knowledge-graph statistics.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}
	_ = s.db.QueryRow(`SELECT COUNT(*) FROM patterns`).Scan(&stats.TotalPatterns)
	_ = s.db.QueryRow(`SELECT COUNT(*) FROM patterns WHERE is_pinned = 1`).Scan(&stats.PinnedCount)

	rows, err := s.db.Query(`SELECT DISTINCT namespace FROM pattern_namespaces ORDER BY namespace`)
	if err != nil {
		return stats, nil
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err == nil {
			stats.Namespaces = append(stats.Namespaces, ns)
		}
	}
	return stats, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

const patternSelect = `
	SELECT p.id, p.pattern_id, p.title, p.content, p.pattern_type, p.confidence,
	       p.created_at, p.last_accessed, p.access_count, p.source, p.metadata,
	       p.is_pinned, p.scope
	FROM patterns p`

type rowLike interface {
	Scan(dest ...any) error
}

func scanPattern(row rowLike) (*Pattern, int64, error) {
	var p Pattern
	var rowid int64
	var lastAccessed, source, meta sql.NullString
	var pinned int
	if err := row.Scan(
		&rowid, &p.ID, &p.Title, &p.Content, &p.Type, &p.Confidence,
		&p.CreatedAt, &lastAccessed, &p.AccessCount, &source, &meta,
		&pinned, &p.Scope,
	); err != nil {
		return nil, 0, err
	}
	fillOptional(&p, lastAccessed, source, meta, pinned)
	return &p, rowid, nil
}

func fillOptional(p *Pattern, lastAccessed, source, meta sql.NullString, pinned int) {
	if lastAccessed.Valid {
		p.LastAccessed = &lastAccessed.String
	}
	if source.Valid {
		p.Source = source.String
	}
	if meta.Valid && meta.String != "" {
		_ = json.Unmarshal([]byte(meta.String), &p.Metadata)
	}
	p.Pinned = pinned != 0
}

func (s *Store) collectPatterns(rows *sql.Rows) ([]Pattern, error) {
	defer func() { _ = rows.Close() }()

	var patterns []Pattern
	var rowids []int64
	for rows.Next() {
		p, rowid, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("pattern: scan: %w", err)
		}
		patterns = append(patterns, *p)
		rowids = append(rowids, rowid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range patterns {
		ns, err := s.namespacesFor(rowids[i])
		if err != nil {
			return nil, err
		}
		patterns[i].Namespaces = ns
	}
	return patterns, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx so namespace loads can
// run inside an open transaction when one exists.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// namespacesFor loads a pattern's namespaces in insertion order.
func (s *Store) namespacesFor(rowid int64) ([]string, error) {
	return namespacesVia(s.db, rowid)
}

func namespacesVia(q querier, rowid int64) ([]string, error) {
	rows, err := q.Query(
		`SELECT namespace FROM pattern_namespaces WHERE pattern_rowid = ? ORDER BY position, namespace`,
		rowid,
	)
	if err != nil {
		return nil, fmt.Errorf("pattern: namespaces: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var namespaces []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, err
		}
		namespaces = append(namespaces, ns)
	}
	return namespaces, rows.Err()
}

func encodeMetadata(m map[string]string) (*string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	s := string(data)
	return &s, nil
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
