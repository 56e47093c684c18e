// Package namespace implements the classification cascade that assigns
// hierarchical namespaces (cortex.* / workspace.<project>.*) to learned
// patterns, and the one-time batch migrator that reclassifies legacy
// records.
//
// The classifier is an ordered list of rules evaluated in sequence —
// deliberately simple and auditable, not a learned model. When evidence
// is insufficient it returns a sentinel namespace flagged for manual
// review; it never guesses.
package namespace

import "strings"

// Core is the cross-cutting framework namespace.
const Core = "CORTEX-core"

// Uncategorized is the sentinel namespace for patterns the cascade
// cannot place. Downstream tooling is expected to flag these for human
// review rather than silently drop them.
const Uncategorized = "workspace.default.uncategorized"

// defaultWorkspace is used when no known project name matches.
const defaultWorkspace = "default"

// Record is the pattern-shaped input the classifier inspects.
type Record struct {
	ID         string
	Title      string
	Source     string
	Namespaces []string
}

// frameworkKeywords map CORTEX-framework pattern families, matched
// against a record's id and title. First match wins.
var frameworkKeywords = []string{
	"validation_insights",
	"workflow_patterns",
	"agent_patterns",
	"orchestration_patterns",
	"session_insights",
	"memory_patterns",
	"error_patterns",
	"cleanup_patterns",
}

// frameworkSources are provenance substrings that mark a pattern as
// framework-originated even without a keyword match.
var frameworkSources = []string{
	"cortex_framework",
	"tier0",
	"tier1",
	"tier2",
	"tier3",
}

// workspaceSources are provenance substrings that mark a pattern as
// originating from user/application code.
var workspaceSources = []string{
	"user_code",
	"application",
	"workspace",
	"test_fixtures",
}

// workspaceKeys are workspace-level pattern families, matched against a
// record's id and title to pick the namespace suffix.
var workspaceKeys = []string{
	"api_patterns",
	"db_patterns",
	"ui_patterns",
	"test_patterns",
	"build_patterns",
}

// Classifier assigns namespaces to pattern records. The known-workspace
// allow-list is injected so the classification rules stay free of
// deployment-specific project names.
type Classifier struct {
	workspaces []string
	rules      []rule
}

// rule pairs a predicate with a namespace producer. Rules are evaluated
// in order; the first matching rule decides.
type rule struct {
	match   func(Record) bool
	produce func(Record) string
}

// New creates a Classifier with the given known-workspace allow-list.
func New(knownWorkspaces []string) *Classifier {
	c := &Classifier{workspaces: knownWorkspaces}
	c.rules = []rule{
		{match: hasFrameworkKeyword, produce: frameworkKeywordNamespace},
		{match: hasFrameworkSource, produce: func(Record) string { return "cortex.framework_patterns" }},
		{match: hasWorkspaceSource, produce: c.workspaceNamespace},
	}
	return c
}

// Classify returns the namespace for a record. ok is false when the
// record already carries a cortex.* or workspace.* namespace — the
// caller should skip it. Records no rule can place get the
// Uncategorized sentinel, never a guess.
func (c *Classifier) Classify(r Record) (ns string, ok bool) {
	if alreadyClassified(r) {
		return "", false
	}
	for _, rule := range c.rules {
		if rule.match(r) {
			return rule.produce(r), true
		}
	}
	return Uncategorized, true
}

func alreadyClassified(r Record) bool {
	for _, ns := range r.Namespaces {
		if strings.HasPrefix(ns, "cortex.") || strings.HasPrefix(ns, "workspace.") {
			return true
		}
	}
	return false
}

func hasFrameworkKeyword(r Record) bool {
	return matchKeyword(r, frameworkKeywords) != ""
}

func frameworkKeywordNamespace(r Record) string {
	return "cortex." + matchKeyword(r, frameworkKeywords)
}

func hasFrameworkSource(r Record) bool {
	return containsAny(strings.ToLower(r.Source), frameworkSources)
}

func hasWorkspaceSource(r Record) bool {
	return containsAny(strings.ToLower(r.Source), workspaceSources)
}

// workspaceNamespace builds workspace.<name>.<key> where <name> comes
// from the allow-list (fallback "default") and <key> from the
// workspace pattern families (fallback "patterns").
func (c *Classifier) workspaceNamespace(r Record) string {
	name := defaultWorkspace
	haystack := strings.ToLower(r.Source + " " + r.ID)
	for _, w := range c.workspaces {
		if w != "" && strings.Contains(haystack, strings.ToLower(w)) {
			name = w
			break
		}
	}

	key := matchKeyword(r, workspaceKeys)
	if key == "" {
		key = "patterns"
	}
	return "workspace." + name + "." + key
}

// matchKeyword returns the first keyword found in the record's id or
// title, or "" when none match.
func matchKeyword(r Record, keywords []string) string {
	haystack := strings.ToLower(r.ID + " " + r.Title)
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return kw
		}
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
