package hotspot

import (
	"context"
	"time"
)

// SetRunGit swaps the git runner for tests and returns a restore
// function. This file only compiles during `go test`.
func SetRunGit(f func(ctx context.Context, dir string, args ...string) ([]byte, error)) func() {
	prev := runGit
	runGit = f
	return func() { runGit = prev }
}

// SetNow injects a deterministic clock into an Analyzer.
func (a *Analyzer) SetNow(f func() time.Time) {
	a.now = f
}
