package namespace_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cortexhq/cortex/internal/namespace"
	"github.com/cortexhq/cortex/internal/pattern"
)

// fakeSource is an in-memory PatternSource recording replacements.
type fakeSource struct {
	patterns []pattern.Pattern
	replaced map[string][]string
	failOn   string
}

func (f *fakeSource) All() ([]pattern.Pattern, error) {
	return f.patterns, nil
}

func (f *fakeSource) ReplaceNamespaces(id string, namespaces []string) error {
	if id == f.failOn {
		return fmt.Errorf("boom")
	}
	if f.replaced == nil {
		f.replaced = make(map[string][]string)
	}
	f.replaced[id] = namespaces
	return nil
}

func TestMigrate(t *testing.T) {
	src := &fakeSource{
		patterns: []pattern.Pattern{
			{ID: "error_patterns_1", Title: "retries"},
			{ID: "p-2", Title: "note", Source: "user_code billing"},
			{ID: "p-3", Title: "mystery", Source: "unknown"},
			{ID: "p-4", Title: "done", Namespaces: []string{"cortex.workflow_patterns"}},
		},
	}

	report, err := namespace.Migrate(src, namespace.New([]string{"billing"}))
	if err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	if report.Total != 4 {
		t.Errorf("Total = %d, want 4", report.Total)
	}
	if report.Classified != 2 {
		t.Errorf("Classified = %d, want 2", report.Classified)
	}
	if report.Uncategorized != 1 {
		t.Errorf("Uncategorized = %d, want 1", report.Uncategorized)
	}
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}

	if got := src.replaced["error_patterns_1"]; len(got) != 1 || got[0] != "cortex.error_patterns" {
		t.Errorf("error_patterns_1 replaced with %v", got)
	}
	if got := src.replaced["p-2"]; len(got) != 1 || got[0] != "workspace.billing.patterns" {
		t.Errorf("p-2 replaced with %v", got)
	}
	if got := src.replaced["p-3"]; len(got) != 1 || got[0] != namespace.Uncategorized {
		t.Errorf("p-3 replaced with %v", got)
	}
	if _, touched := src.replaced["p-4"]; touched {
		t.Error("p-4 was already classified and should not be rewritten")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	// Run the cascade over its own output: everything now carries a
	// hierarchical namespace and gets skipped.
	src := &fakeSource{
		patterns: []pattern.Pattern{
			{ID: "error_patterns_1", Namespaces: []string{"cortex.error_patterns"}},
			{ID: "p-2", Namespaces: []string{"workspace.billing.patterns"}},
			{ID: "p-3", Namespaces: []string{namespace.Uncategorized}},
		},
	}

	report, err := namespace.Migrate(src, namespace.New(nil))
	if err != nil {
		t.Fatal(err)
	}
	if report.Skipped != 3 || report.Classified != 0 || report.Uncategorized != 0 {
		t.Errorf("report = %+v, want all 3 skipped", report)
	}
	if len(src.replaced) != 0 {
		t.Errorf("replacements = %v, want none", src.replaced)
	}
}

func TestMigrate_StoreFailure(t *testing.T) {
	src := &fakeSource{
		patterns: []pattern.Pattern{{ID: "error_patterns_1"}},
		failOn:   "error_patterns_1",
	}

	_, err := namespace.Migrate(src, namespace.New(nil))
	if err == nil {
		t.Fatal("Migrate() error = nil, want store failure surfaced")
	}
	if !strings.Contains(err.Error(), "error_patterns_1") {
		t.Errorf("error %q should name the failing pattern", err)
	}
}

func TestReportString(t *testing.T) {
	r := namespace.Report{Total: 10, Classified: 6, Uncategorized: 3, Skipped: 1}
	s := r.String()
	for _, want := range []string{"10", "6", "3", "1"} {
		if !strings.Contains(s, want) {
			t.Errorf("Report.String() = %q, missing %s", s, want)
		}
	}
}
