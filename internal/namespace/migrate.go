package namespace

import (
	"fmt"

	"github.com/cortexhq/cortex/internal/pattern"
)

// PatternSource is the slice of the pattern store the migrator needs.
// *pattern.Store satisfies it.
type PatternSource interface {
	All() ([]pattern.Pattern, error)
	ReplaceNamespaces(patternID string, namespaces []string) error
}

// Report summarizes a migration run.
type Report struct {
	Total         int
	Classified    int
	Uncategorized int
	Skipped       int
}

func (r Report) String() string {
	return fmt.Sprintf("migrated %d patterns: %d classified, %d uncategorized (flagged for review), %d already classified",
		r.Total, r.Classified, r.Uncategorized, r.Skipped)
}

// Migrate reclassifies every legacy pattern in the store into the
// namespace scheme. Patterns that already carry a cortex.* or
// workspace.* namespace are skipped; ambiguous patterns are tagged
// with the Uncategorized sentinel rather than dropped or guessed.
func Migrate(store PatternSource, c *Classifier) (*Report, error) {
	patterns, err := store.All()
	if err != nil {
		return nil, fmt.Errorf("namespace: migrate: load patterns: %w", err)
	}

	report := &Report{Total: len(patterns)}
	for _, p := range patterns {
		ns, ok := c.Classify(Record{
			ID:         p.ID,
			Title:      p.Title,
			Source:     p.Source,
			Namespaces: p.Namespaces,
		})
		if !ok {
			report.Skipped++
			continue
		}

		if err := store.ReplaceNamespaces(p.ID, []string{ns}); err != nil {
			return report, fmt.Errorf("namespace: migrate %s: %w", p.ID, err)
		}
		if ns == Uncategorized {
			report.Uncategorized++
		} else {
			report.Classified++
		}
	}
	return report, nil
}
