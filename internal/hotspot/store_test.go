package hotspot_test

import (
	"testing"

	"github.com/cortexhq/cortex/internal/hotspot"
)

func newTestStore(t *testing.T) *hotspot.Store {
	t.Helper()
	s, err := hotspot.NewStore(hotspot.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleHotspots() []hotspot.FileHotspot {
	return []hotspot.FileHotspot{
		{
			FilePath: "a.go", PeriodStart: "2026-07-30", PeriodEnd: "2026-08-29",
			TotalCommits: 10, FileEdits: 3, ChurnRate: 0.3,
			Stability: hotspot.StabilityUnstable, LinesChanged: 40, LastModified: "2026-08-28",
		},
		{
			FilePath: "b.go", PeriodStart: "2026-07-30", PeriodEnd: "2026-08-29",
			TotalCommits: 10, FileEdits: 1, ChurnRate: 0.1,
			Stability: hotspot.StabilityModerate, LinesChanged: 5,
		},
		{
			FilePath: "c.go", PeriodStart: "2026-07-30", PeriodEnd: "2026-08-29",
			TotalCommits: 10, FileEdits: 0, ChurnRate: 0.0,
			Stability: hotspot.StabilityStable,
		},
	}
}

func TestSaveAndGetHotspots(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveHotspots(sampleHotspots()); err != nil {
		t.Fatalf("SaveHotspots() error: %v", err)
	}

	got, err := s.GetHotspots(10)
	if err != nil {
		t.Fatalf("GetHotspots() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d hotspots, want 3", len(got))
	}
	// Churn descending.
	if got[0].FilePath != "a.go" || got[2].FilePath != "c.go" {
		t.Errorf("order = %s, %s, %s", got[0].FilePath, got[1].FilePath, got[2].FilePath)
	}
	if got[0].LastModified != "2026-08-28" {
		t.Errorf("LastModified = %q", got[0].LastModified)
	}
	// Missing last_modified comes back as empty string, not an error.
	if got[1].LastModified != "" {
		t.Errorf("b.go LastModified = %q, want empty", got[1].LastModified)
	}
}

func TestSaveHotspots_UpsertReplaces(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveHotspots(sampleHotspots()); err != nil {
		t.Fatal(err)
	}

	// Re-analyzing the same window replaces, never duplicates.
	updated := sampleHotspots()
	updated[0].FileEdits = 5
	updated[0].ChurnRate = 0.5
	if err := s.SaveHotspots(updated); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetHotspots(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d hotspots after re-save, want 3", len(got))
	}
	if got[0].FilePath != "a.go" || got[0].ChurnRate != 0.5 {
		t.Errorf("a.go churn = %g, want updated 0.5", got[0].ChurnRate)
	}
}

func TestSaveHotspots_Empty(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveHotspots(nil); err != nil {
		t.Errorf("SaveHotspots(nil) error: %v", err)
	}
}

func TestGetUnstableFiles(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveHotspots(sampleHotspots()); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetUnstableFiles(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].FilePath != "a.go" {
		t.Errorf("unstable = %v, want only a.go", got)
	}
}

func TestGetHotspotsByStability(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveHotspots(sampleHotspots()); err != nil {
		t.Fatal(err)
	}

	for stability, wantPath := range map[string]string{
		hotspot.StabilityStable:   "c.go",
		hotspot.StabilityModerate: "b.go",
		hotspot.StabilityUnstable: "a.go",
	} {
		got, err := s.GetHotspotsByStability(stability, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].FilePath != wantPath {
			t.Errorf("%s = %v, want %s", stability, got, wantPath)
		}
	}
}
