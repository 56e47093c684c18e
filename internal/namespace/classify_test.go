package namespace_test

import (
	"testing"

	"github.com/cortexhq/cortex/internal/namespace"
)

func TestClassify(t *testing.T) {
	c := namespace.New([]string{"billing", "frontend"})

	tests := []struct {
		name   string
		record namespace.Record
		want   string
	}{
		{
			"framework keyword in id",
			namespace.Record{ID: "error_patterns_retry", Title: "Retry on 503"},
			"cortex.error_patterns",
		},
		{
			"framework keyword in title",
			namespace.Record{ID: "p-7", Title: "Workflow_Patterns for releases"},
			"cortex.workflow_patterns",
		},
		{
			"keyword beats source",
			namespace.Record{ID: "session_insights_1", Title: "x", Source: "user_code"},
			"cortex.session_insights",
		},
		{
			"framework source without keyword",
			namespace.Record{ID: "p-1", Title: "misc note", Source: "cortex_framework"},
			"cortex.framework_patterns",
		},
		{
			"tier source",
			namespace.Record{ID: "p-2", Title: "misc note", Source: "tier2_consolidation"},
			"cortex.framework_patterns",
		},
		{
			"workspace source with known project and key",
			namespace.Record{ID: "billing db_patterns rollback", Title: "x", Source: "user_code"},
			"workspace.billing.db_patterns",
		},
		{
			"workspace source, project from source field",
			namespace.Record{ID: "api_patterns auth", Title: "x", Source: "workspace:frontend"},
			"workspace.frontend.api_patterns",
		},
		{
			"workspace source, unknown project",
			namespace.Record{ID: "ui_patterns modal", Title: "x", Source: "application"},
			"workspace.default.ui_patterns",
		},
		{
			"workspace source, no key",
			namespace.Record{ID: "p-3", Title: "one-off note", Source: "test_fixtures"},
			"workspace.default.patterns",
		},
		{
			"no evidence at all",
			namespace.Record{ID: "p-4", Title: "mystery", Source: "unknown_origin"},
			namespace.Uncategorized,
		},
		{
			"empty record",
			namespace.Record{},
			namespace.Uncategorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Classify(tt.record)
			if !ok {
				t.Fatal("Classify() ok = false, want true")
			}
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_SkipsAlreadyClassified(t *testing.T) {
	c := namespace.New(nil)

	tests := []struct {
		name string
		ns   []string
	}{
		{"cortex prefix", []string{"cortex.error_patterns"}},
		{"workspace prefix", []string{"workspace.billing.db_patterns"}},
		{"mixed with legacy", []string{"legacy-tag", "cortex.workflow_patterns"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := c.Classify(namespace.Record{ID: "error_patterns_x", Namespaces: tt.ns})
			if ok {
				t.Error("Classify() ok = true, want false for already-classified record")
			}
		})
	}
}

func TestClassify_CoreNamespaceIsNotClassified(t *testing.T) {
	// CORTEX-core carries no hierarchy prefix, so the cascade still
	// runs for records that only have it.
	c := namespace.New(nil)
	ns, ok := c.Classify(namespace.Record{
		ID:         "memory_patterns_dedup",
		Namespaces: []string{namespace.Core},
	})
	if !ok {
		t.Fatal("Classify() ok = false, want true for CORTEX-core record")
	}
	if ns != "cortex.memory_patterns" {
		t.Errorf("Classify() = %q, want cortex.memory_patterns", ns)
	}
}
