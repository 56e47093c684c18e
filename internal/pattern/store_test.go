package pattern_test

import (
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cortexhq/cortex/internal/pattern"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *pattern.Store {
	t.Helper()
	s, err := pattern.New(pattern.Config{
		DataDir:          t.TempDir(),
		MaxSearchResults: 50,
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func save(t *testing.T, s *pattern.Store, p pattern.Pattern) {
	t.Helper()
	if err := s.Upsert(p); err != nil {
		t.Fatalf("Upsert(%s) error: %v", p.ID, err)
	}
}

// ─── Upsert / Get ───────────────────────────────────────────────────────────

func TestUpsert_Roundtrip(t *testing.T) {
	s := newTestStore(t)

	save(t, s, pattern.Pattern{
		ID:         "p-1",
		Title:      "Retry with backoff",
		Content:    "Wrap transient failures in exponential backoff.",
		Type:       "error_handling",
		Confidence: 0.8,
		Source:     "user_code",
		Metadata:   map[string]string{"lang": "go"},
		Pinned:     true,
		Scope:      pattern.ScopeApplication,
		Namespaces: []string{"workspace.billing.error_patterns"},
	})

	got, err := s.Get("p-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Title != "Retry with backoff" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Confidence != 0.8 {
		t.Errorf("Confidence = %g, want 0.8", got.Confidence)
	}
	if !got.Pinned {
		t.Error("Pinned = false, want true")
	}
	if got.Scope != pattern.ScopeApplication {
		t.Errorf("Scope = %q", got.Scope)
	}
	if got.Metadata["lang"] != "go" {
		t.Errorf("Metadata = %v", got.Metadata)
	}
	if !reflect.DeepEqual(got.Namespaces, []string{"workspace.billing.error_patterns"}) {
		t.Errorf("Namespaces = %v", got.Namespaces)
	}
}

func TestUpsert_RequiresID(t *testing.T) {
	s := newTestStore(t)
	if err := s.Upsert(pattern.Pattern{Title: "no id"}); err == nil {
		t.Error("Upsert() with empty ID should fail")
	}
}

func TestUpsert_DefaultNamespace(t *testing.T) {
	s := newTestStore(t)
	save(t, s, pattern.Pattern{ID: "p-1", Title: "T", Content: "C"})

	got, err := s.Get("p-1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Namespaces, []string{pattern.DefaultNamespace}) {
		t.Errorf("Namespaces = %v, want [%s]", got.Namespaces, pattern.DefaultNamespace)
	}
}

func TestUpsert_ClampsConfidence(t *testing.T) {
	s := newTestStore(t)

	save(t, s, pattern.Pattern{ID: "high", Title: "T", Content: "C", Confidence: 1.7})
	save(t, s, pattern.Pattern{ID: "low", Title: "T", Content: "C", Confidence: -0.3})

	high, _ := s.Get("high")
	low, _ := s.Get("low")
	if high.Confidence != 1.0 {
		t.Errorf("high confidence = %g, want 1.0", high.Confidence)
	}
	if low.Confidence != 0.0 {
		t.Errorf("low confidence = %g, want 0.0", low.Confidence)
	}
}

func TestUpsert_UpdateReplacesNamespaces(t *testing.T) {
	s := newTestStore(t)

	save(t, s, pattern.Pattern{
		ID: "p-1", Title: "T", Content: "C",
		Namespaces: []string{"cortex.error_patterns", "CORTEX-core"},
	})
	save(t, s, pattern.Pattern{
		ID: "p-1", Title: "T2", Content: "C2",
		Namespaces: []string{"workspace.api.api_patterns"},
	})

	got, err := s.Get("p-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "T2" {
		t.Errorf("Title = %q, want updated title", got.Title)
	}
	if !reflect.DeepEqual(got.Namespaces, []string{"workspace.api.api_patterns"}) {
		t.Errorf("Namespaces = %v, want only the new namespace", got.Namespaces)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get("missing"); err == nil {
		t.Error("Get(missing) should fail")
	}
}

func TestGet_RecordsAccess(t *testing.T) {
	s := newTestStore(t)
	save(t, s, pattern.Pattern{ID: "p-1", Title: "T", Content: "C"})

	first, err := s.Get("p-1")
	if err != nil {
		t.Fatal(err)
	}
	if first.AccessCount != 1 {
		t.Errorf("AccessCount after first Get = %d, want 1", first.AccessCount)
	}
	if first.LastAccessed == nil {
		t.Fatal("LastAccessed is nil after Get")
	}

	second, err := s.Get("p-1")
	if err != nil {
		t.Fatal(err)
	}
	if second.AccessCount != 2 {
		t.Errorf("AccessCount after second Get = %d, want 2", second.AccessCount)
	}
}

func TestGet_LoadsNamespaces(t *testing.T) {
	s := newTestStore(t)
	save(t, s, pattern.Pattern{
		ID:         "p-1",
		Title:      "T",
		Content:    "C",
		Namespaces: []string{"workspace.api.api_patterns", "CORTEX-core"},
	})

	got, err := s.Get("p-1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"workspace.api.api_patterns", "CORTEX-core"}
	if !reflect.DeepEqual(got.Namespaces, want) {
		t.Errorf("Namespaces = %v, want %v", got.Namespaces, want)
	}
}

// ─── Reinforce ──────────────────────────────────────────────────────────────

func TestReinforce(t *testing.T) {
	s := newTestStore(t)
	save(t, s, pattern.Pattern{ID: "p-1", Title: "T", Content: "C", Confidence: 0.5})

	tests := []struct {
		name  string
		delta float64
		want  float64
	}{
		{"positive", 0.2, 0.7},
		{"negative", -0.3, 0.4},
		{"clamps high", 0.9, 1.0},
		{"clamps low", -1.5, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Reinforce("p-1", tt.delta); err != nil {
				t.Fatalf("Reinforce() error: %v", err)
			}
			got, _ := s.Get("p-1")
			// chained SQL arithmetic accumulates float error, so compare
			// with a tolerance rather than exact equality
			if math.Abs(got.Confidence-tt.want) > 1e-9 {
				t.Errorf("Confidence = %g, want %g", got.Confidence, tt.want)
			}
		})
	}
}

func TestReinforce_NotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.Reinforce("missing", 0.1); err == nil {
		t.Error("Reinforce(missing) should fail")
	}
}

// ─── Search ─────────────────────────────────────────────────────────────────

func TestSearch_Basic(t *testing.T) {
	s := newTestStore(t)
	save(t, s, pattern.Pattern{ID: "p-1", Title: "Goroutine leaks", Content: "Always close channels feeding workers.", Confidence: 0.9})
	save(t, s, pattern.Pattern{ID: "p-2", Title: "SQL injection", Content: "Use placeholders, never string concat.", Confidence: 0.9})

	results, err := s.Search("goroutine", pattern.DefaultSearchOptions())
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].ID != "p-1" {
		t.Errorf("result = %s, want p-1", results[0].ID)
	}
	if results[0].Rank >= 0 {
		t.Errorf("Rank = %g, want negative (bm25 convention)", results[0].Rank)
	}
}

func TestSearch_ConfidenceFloor(t *testing.T) {
	s := newTestStore(t)
	save(t, s, pattern.Pattern{ID: "weak", Title: "caching strategy", Content: "tentative idea", Confidence: 0.2})
	save(t, s, pattern.Pattern{ID: "strong", Title: "caching strategy", Content: "proven approach", Confidence: 0.9})

	results, err := s.Search("caching", pattern.DefaultSearchOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "strong" {
		t.Errorf("results = %v, want only strong", ids(results))
	}

	// Floor of zero admits everything.
	all, err := s.Search("caching", pattern.SearchOptions{MinConfidence: 0, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("got %d results with zero floor, want 2", len(all))
	}
}

func TestSearch_ScopeFilter(t *testing.T) {
	s := newTestStore(t)
	save(t, s, pattern.Pattern{ID: "fw", Title: "logging levels", Content: "x", Confidence: 0.9, Scope: pattern.ScopeCortex})
	save(t, s, pattern.Pattern{ID: "app", Title: "logging levels", Content: "x", Confidence: 0.9, Scope: pattern.ScopeApplication})

	opts := pattern.DefaultSearchOptions()
	opts.Scope = pattern.ScopeApplication
	results, err := s.Search("logging", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "app" {
		t.Errorf("results = %v, want only app", ids(results))
	}
}

func TestSearch_NamespaceFilter(t *testing.T) {
	s := newTestStore(t)
	save(t, s, pattern.Pattern{ID: "a", Title: "deploy checklist", Content: "x", Confidence: 0.9, Namespaces: []string{"workspace.api.build_patterns"}})
	save(t, s, pattern.Pattern{ID: "b", Title: "deploy checklist", Content: "x", Confidence: 0.9, Namespaces: []string{"workspace.web.build_patterns"}})
	save(t, s, pattern.Pattern{ID: "c", Title: "deploy checklist", Content: "x", Confidence: 0.9, Namespaces: []string{"cortex.workflow_patterns"}})

	opts := pattern.DefaultSearchOptions()
	opts.Namespaces = []string{"workspace.api.build_patterns", "cortex.workflow_patterns"}
	results, err := s.Search("deploy", opts)
	if err != nil {
		t.Fatal(err)
	}
	got := ids(results)
	if len(got) != 2 {
		t.Fatalf("results = %v, want a and c", got)
	}
	for _, id := range got {
		if id == "b" {
			t.Errorf("results = %v, b should be filtered out", got)
		}
	}
}

func TestSearch_DeterministicTieBreak(t *testing.T) {
	s := newTestStore(t)
	// Identical text produces identical BM25 scores; rowid breaks the tie.
	for _, id := range []string{"t-1", "t-2", "t-3"} {
		save(t, s, pattern.Pattern{ID: id, Title: "mutex contention", Content: "same words here", Confidence: 0.9})
	}

	first, err := s.Search("mutex", pattern.DefaultSearchOptions())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := s.Search("mutex", pattern.DefaultSearchOptions())
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(ids(first), ids(again)) {
			t.Fatalf("run %d: order %v differs from %v", i, ids(again), ids(first))
		}
	}
}

func TestSearch_SyntaxError(t *testing.T) {
	s := newTestStore(t)
	save(t, s, pattern.Pattern{ID: "p-1", Title: "T", Content: "C", Confidence: 0.9})

	_, err := s.Search(`"unterminated phrase`, pattern.DefaultSearchOptions())
	if err == nil {
		t.Fatal("malformed query should error, not return empty results")
	}
	var syntaxErr *pattern.QuerySyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Errorf("error = %v, want *QuerySyntaxError", err)
	}
}

func TestEscapeQuery_RecoverableSearch(t *testing.T) {
	s := newTestStore(t)
	save(t, s, pattern.Pattern{ID: "p-1", Title: "C++ templates", Content: "generic code notes", Confidence: 0.9})

	raw := `templates AND NOT`
	if _, err := s.Search(raw, pattern.DefaultSearchOptions()); err == nil {
		t.Fatal("expected a syntax error for the raw query")
	}

	results, err := s.Search(pattern.EscapeQuery(raw), pattern.DefaultSearchOptions())
	if err != nil {
		t.Fatalf("escaped query should parse: %v", err)
	}
	_ = results // literal-token fallback may or may not match; parsing is the contract
}

// ─── Namespace-Priority Search ──────────────────────────────────────────────

func TestSearchWithNamespacePriority_Ordering(t *testing.T) {
	s := newTestStore(t)
	// Identical text keeps BM25 equal so ordering is purely the
	// namespace weighting.
	base := pattern.Pattern{Title: "connection pooling", Content: "reuse connections", Confidence: 0.9}

	other := base
	other.ID = "other"
	other.Namespaces = []string{"workspace.web.db_patterns"}
	save(t, s, other)

	core := base
	core.ID = "core"
	core.Namespaces = []string{pattern.DefaultNamespace}
	save(t, s, core)

	current := base
	current.ID = "current"
	current.Namespaces = []string{"workspace.api.db_patterns"}
	save(t, s, current)

	results, err := s.SearchWithNamespacePriority("pooling", "workspace.api.db_patterns", true, 0.5, 10)
	if err != nil {
		t.Fatalf("SearchWithNamespacePriority() error: %v", err)
	}
	want := []string{"current", "core", "other"}
	got := make([]string, len(results))
	for i, r := range results {
		got[i] = r.ID
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if results[0].WeightedScore <= results[1].WeightedScore {
		t.Errorf("current score %g should beat core score %g",
			results[0].WeightedScore, results[1].WeightedScore)
	}
}

func TestSearchWithNamespacePriority_ExcludeCore(t *testing.T) {
	s := newTestStore(t)
	base := pattern.Pattern{Title: "index tuning", Content: "same words", Confidence: 0.9}

	core := base
	core.ID = "core"
	core.Namespaces = []string{pattern.DefaultNamespace}
	save(t, s, core)

	other := base
	other.ID = "other"
	other.Namespaces = []string{"workspace.web.db_patterns"}
	save(t, s, other)

	results, err := s.SearchWithNamespacePriority("tuning", "workspace.api.db_patterns", false, 0.5, 10)
	if err != nil {
		t.Fatal(err)
	}
	// With includeCore=false both get the low weight; core is still
	// returned (deprioritized, not hidden) and rowid order holds.
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].WeightedScore != results[1].WeightedScore {
		t.Errorf("scores differ: %g vs %g, want equal weights without core boost",
			results[0].WeightedScore, results[1].WeightedScore)
	}
}

func TestSearchWithNamespacePriority_LimitAfterRerank(t *testing.T) {
	s := newTestStore(t)
	base := pattern.Pattern{Title: "rate limiting", Content: "token bucket", Confidence: 0.9}

	// Insert the priority match last so raw FTS order would bury it.
	for i, id := range []string{"o-1", "o-2", "o-3"} {
		p := base
		p.ID = id
		p.Namespaces = []string{"workspace.web.api_patterns"}
		save(t, s, p)
		_ = i
	}
	prio := base
	prio.ID = "prio"
	prio.Namespaces = []string{"workspace.api.api_patterns"}
	save(t, s, prio)

	results, err := s.SearchWithNamespacePriority("limiting", "workspace.api.api_patterns", true, 0.5, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want limit 2", len(results))
	}
	if results[0].ID != "prio" {
		t.Errorf("first result = %s, want prio (re-rank before truncation)", results[0].ID)
	}
}

// ─── ByNamespace / All / ReplaceNamespaces ──────────────────────────────────

func TestByNamespace(t *testing.T) {
	s := newTestStore(t)
	save(t, s, pattern.Pattern{ID: "hi", Title: "T", Content: "C", Confidence: 0.9, Namespaces: []string{"cortex.error_patterns"}})
	save(t, s, pattern.Pattern{ID: "lo", Title: "T", Content: "C", Confidence: 0.6, Namespaces: []string{"cortex.error_patterns"}})
	save(t, s, pattern.Pattern{ID: "elsewhere", Title: "T", Content: "C", Confidence: 0.9, Namespaces: []string{"cortex.workflow_patterns"}})

	got, err := s.ByNamespace("cortex.error_patterns", 0.5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d patterns, want 2", len(got))
	}
	if got[0].ID != "hi" {
		t.Errorf("first = %s, want hi (confidence desc)", got[0].ID)
	}
}

func TestAll_And_ReplaceNamespaces(t *testing.T) {
	s := newTestStore(t)
	save(t, s, pattern.Pattern{ID: "p-1", Title: "T", Content: "C"})
	save(t, s, pattern.Pattern{ID: "p-2", Title: "T", Content: "C"})

	all, err := s.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("All() = %d patterns, want 2", len(all))
	}

	if err := s.ReplaceNamespaces("p-1", []string{"workspace.api.db_patterns"}); err != nil {
		t.Fatalf("ReplaceNamespaces() error: %v", err)
	}
	got, _ := s.Get("p-1")
	if !reflect.DeepEqual(got.Namespaces, []string{"workspace.api.db_patterns"}) {
		t.Errorf("Namespaces = %v", got.Namespaces)
	}

	// Empty replacement falls back to the default namespace.
	if err := s.ReplaceNamespaces("p-2", nil); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Get("p-2")
	if !reflect.DeepEqual(got.Namespaces, []string{pattern.DefaultNamespace}) {
		t.Errorf("Namespaces = %v, want default", got.Namespaces)
	}

	if err := s.ReplaceNamespaces("missing", []string{"x"}); err == nil {
		t.Error("ReplaceNamespaces(missing) should fail")
	}
}

// ─── Stats ──────────────────────────────────────────────────────────────────

func TestStats(t *testing.T) {
	s := newTestStore(t)
	save(t, s, pattern.Pattern{ID: "p-1", Title: "T", Content: "C", Pinned: true, Namespaces: []string{"cortex.error_patterns"}})
	save(t, s, pattern.Pattern{ID: "p-2", Title: "T", Content: "C", Namespaces: []string{"workspace.api.db_patterns"}})

	stats, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalPatterns != 2 {
		t.Errorf("TotalPatterns = %d, want 2", stats.TotalPatterns)
	}
	if stats.PinnedCount != 1 {
		t.Errorf("PinnedCount = %d, want 1", stats.PinnedCount)
	}
	if len(stats.Namespaces) != 2 {
		t.Errorf("Namespaces = %v, want 2 distinct", stats.Namespaces)
	}
}

// ─── Persistence ────────────────────────────────────────────────────────────

func TestReopen_PreservesData(t *testing.T) {
	dir := t.TempDir()
	cfg := pattern.Config{DataDir: dir, MaxSearchResults: 50}

	s, err := pattern.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	save(t, s, pattern.Pattern{ID: "p-1", Title: "persistent", Content: "survives restart", Confidence: 0.9})
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := pattern.New(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	if _, err := filepath.Abs(dir); err != nil {
		t.Fatal(err)
	}
	results, err := s2.Search("persistent", pattern.DefaultSearchOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "p-1" {
		t.Errorf("after reopen results = %v, want p-1", ids(results))
	}
}

func ids(results []pattern.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}
