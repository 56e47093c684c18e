// Package hotspot implements Tier 3 development context: file
// churn/hotspot metrics derived from git history.
//
// The analyzer is a best-effort advisory signal. Any failure to invoke
// git (missing binary, not a repository, timeout) degrades to an empty
// result with a diagnostic log line — it never propagates an error to
// its caller. A quiet repo (zero commits in the window) is likewise an
// empty result, not a failure.
package hotspot

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Stability classes by churn rate.
const (
	StabilityStable   = "STABLE"   // churn < 0.10
	StabilityModerate = "MODERATE" // 0.10 <= churn < 0.20
	StabilityUnstable = "UNSTABLE" // churn >= 0.20
)

const (
	stableThreshold   = 0.10
	moderateThreshold = 0.20
)

const dateFormat = "2006-01-02"

// FileHotspot is churn data for one file over one analysis window.
// (FilePath, PeriodStart, PeriodEnd) is the upsert key.
type FileHotspot struct {
	FilePath     string  `json:"file_path"`
	PeriodStart  string  `json:"period_start"`
	PeriodEnd    string  `json:"period_end"`
	TotalCommits int     `json:"total_commits"`
	FileEdits    int     `json:"file_edits"`
	ChurnRate    float64 `json:"churn_rate"`
	Stability    string  `json:"stability"`
	LinesChanged int     `json:"lines_changed,omitempty"`
	LastModified string  `json:"last_modified,omitempty"`
}

// runGit invokes the git CLI in dir. Package-level var to allow test
// injection; the context bounds the subprocess (caller-supplied
// timeout).
var runGit = func(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Analyzer derives file hotspots from a repository's commit history.
type Analyzer struct {
	now func() time.Time
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now}
}

// AnalyzeHotspots computes per-file churn over the trailing window of
// `days` days, sorted by churn rate descending (most volatile first,
// path ascending on ties for determinism). Bound the git subprocesses
// with the context; on any git failure or an empty window the result
// is an empty list.
func (a *Analyzer) AnalyzeHotspots(ctx context.Context, repoPath string, days int) []FileHotspot {
	if days <= 0 {
		days = 30
	}

	end := a.now().UTC()
	start := end.AddDate(0, 0, -days)
	since := start.Format(dateFormat)

	out, err := runGit(ctx, repoPath, "rev-list", "--count", "HEAD", "--since="+since)
	if err != nil {
		log.Printf("hotspot: git rev-list failed for %s: %v", repoPath, err)
		return nil
	}
	totalCommits, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		log.Printf("hotspot: unexpected rev-list output for %s: %v", repoPath, err)
		return nil
	}
	if totalCommits == 0 {
		return nil
	}

	out, err = runGit(ctx, repoPath, "log", "--since="+since, "--numstat", "--date=short", "--pretty=format:@%cd")
	if err != nil {
		log.Printf("hotspot: git log failed for %s: %v", repoPath, err)
		return nil
	}

	type fileStat struct {
		edits        int
		linesChanged int
		lastModified string
	}
	stats := map[string]*fileStat{}

	// git log emits newest-first: a "@<date>" line per commit followed
	// by "added<TAB>deleted<TAB>path" numstat lines. Binary files show
	// "-" counts.
	var commitDate string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "@") {
			commitDate = strings.TrimPrefix(line, "@")
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		path := parts[2]
		st := stats[path]
		if st == nil {
			st = &fileStat{lastModified: commitDate}
			stats[path] = st
		}
		st.edits++
		if added, err := strconv.Atoi(parts[0]); err == nil {
			st.linesChanged += added
		}
		if deleted, err := strconv.Atoi(parts[1]); err == nil {
			st.linesChanged += deleted
		}
	}

	periodStart := start.Format(dateFormat)
	periodEnd := end.Format(dateFormat)

	hotspots := make([]FileHotspot, 0, len(stats))
	for path, st := range stats {
		churn := float64(st.edits) / float64(totalCommits)
		hotspots = append(hotspots, FileHotspot{
			FilePath:     path,
			PeriodStart:  periodStart,
			PeriodEnd:    periodEnd,
			TotalCommits: totalCommits,
			FileEdits:    st.edits,
			ChurnRate:    churn,
			Stability:    ClassifyStability(churn),
			LinesChanged: st.linesChanged,
			LastModified: st.lastModified,
		})
	}

	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].ChurnRate != hotspots[j].ChurnRate {
			return hotspots[i].ChurnRate > hotspots[j].ChurnRate
		}
		return hotspots[i].FilePath < hotspots[j].FilePath
	})
	return hotspots
}

// ClassifyStability maps a churn rate to its stability class.
func ClassifyStability(churn float64) string {
	switch {
	case churn < stableThreshold:
		return StabilityStable
	case churn < moderateThreshold:
		return StabilityModerate
	default:
		return StabilityUnstable
	}
}

// FormatReport renders hotspots as a compact text report, most volatile
// first.
func FormatReport(hotspots []FileHotspot) string {
	if len(hotspots) == 0 {
		return "No hotspots in the analysis window."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d hotspots (%s → %s, %d commits):\n",
		len(hotspots), hotspots[0].PeriodStart, hotspots[0].PeriodEnd, hotspots[0].TotalCommits)
	for _, h := range hotspots {
		fmt.Fprintf(&b, "  %-8s %5.1f%%  %s (%d edits, %d lines)\n",
			h.Stability, h.ChurnRate*100, h.FilePath, h.FileEdits, h.LinesChanged)
	}
	return b.String()
}
