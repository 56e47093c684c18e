package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cortexhq/cortex/internal/pattern"
	"github.com/mark3labs/mcp-go/mcp"
)

// PatternSearchTool handles the pattern_search MCP tool.
type PatternSearchTool struct {
	store *pattern.Store
}

// NewPatternSearchTool creates a PatternSearchTool.
func NewPatternSearchTool(store *pattern.Store) *PatternSearchTool {
	return &PatternSearchTool{store: store}
}

// Definition returns the MCP tool definition for pattern_search.
func (t *PatternSearchTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_search",
		mcp.WithDescription(
			"Search the pattern knowledge graph with full-text ranking. Supports FTS5 "+
				"syntax: AND/OR/NOT, \"phrase\" quoting, and prefix* wildcards.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query in FTS5 syntax"),
		),
		mcp.WithNumber("min_confidence",
			mcp.Description("Confidence floor (default: the configured floor)"),
		),
		mcp.WithString("scope",
			mcp.Description("Filter by scope: cortex or application"),
		),
		mcp.WithString("namespaces",
			mcp.Description("Comma-separated namespaces; a pattern matches if it belongs to any"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10)"),
		),
	)
}

// Handle processes the pattern_search tool call. A malformed query is
// retried once as an escaped literal search before giving up.
func (t *PatternSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	opts := pattern.DefaultSearchOptions()
	opts.MinConfidence = floatArg(req, "min_confidence", t.store.MinConfidence())
	opts.Scope = req.GetString("scope", "")
	opts.Limit = intArg(req, "limit", opts.Limit)
	if raw := req.GetString("namespaces", ""); raw != "" {
		for _, ns := range strings.Split(raw, ",") {
			if ns = strings.TrimSpace(ns); ns != "" {
				opts.Namespaces = append(opts.Namespaces, ns)
			}
		}
	}

	results, err := t.store.Search(query, opts)
	var syntaxErr *pattern.QuerySyntaxError
	if errors.As(err, &syntaxErr) {
		// Retry as a literal term search.
		results, err = t.store.Search(pattern.EscapeQuery(query), opts)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// ─── PatternRecallTool ──────────────────────────────────────────────────────

// PatternRecallTool handles the pattern_recall MCP tool
// (namespace-priority search).
type PatternRecallTool struct {
	store *pattern.Store
}

// NewPatternRecallTool creates a PatternRecallTool.
func NewPatternRecallTool(store *pattern.Store) *PatternRecallTool {
	return &PatternRecallTool{store: store}
}

// Definition returns the MCP tool definition for pattern_recall.
func (t *PatternRecallTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_recall",
		mcp.WithDescription(
			"Search patterns biased toward the current working namespace. Patterns in "+
				"the current namespace rank first, cross-cutting CORTEX-core knowledge second, "+
				"everything else is deprioritized but not hidden.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query in FTS5 syntax"),
		),
		mcp.WithString("namespace",
			mcp.Description("Current working namespace to prioritize"),
		),
		mcp.WithBoolean("include_core",
			mcp.Description("Boost CORTEX-core patterns (default: true)"),
		),
		mcp.WithNumber("min_confidence",
			mcp.Description("Confidence floor (default: the configured floor)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10)"),
		),
	)
}

// Handle processes the pattern_recall tool call.
func (t *PatternRecallTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	currentNS := req.GetString("namespace", "")
	includeCore := boolArg(req, "include_core", true)
	minConfidence := floatArg(req, "min_confidence", t.store.MinConfidence())
	limit := intArg(req, "limit", 10)

	results, err := t.store.SearchWithNamespacePriority(query, currentNS, includeCore, minConfidence, limit)
	var syntaxErr *pattern.QuerySyntaxError
	if errors.As(err, &syntaxErr) {
		results, err = t.store.SearchWithNamespacePriority(pattern.EscapeQuery(query), currentNS, includeCore, minConfidence, limit)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recall failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// ─── PatternListTool ────────────────────────────────────────────────────────

// PatternListTool handles the pattern_list MCP tool (everything in one
// namespace, no full-text ranking).
type PatternListTool struct {
	store *pattern.Store
}

// NewPatternListTool creates a PatternListTool.
func NewPatternListTool(store *pattern.Store) *PatternListTool {
	return &PatternListTool{store: store}
}

// Definition returns the MCP tool definition for pattern_list.
func (t *PatternListTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_list",
		mcp.WithDescription(
			"List every pattern in a namespace, highest confidence first.",
		),
		mcp.WithString("namespace",
			mcp.Required(),
			mcp.Description("Namespace to list"),
		),
		mcp.WithNumber("min_confidence",
			mcp.Description("Confidence floor (default: the configured floor)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20)"),
		),
	)
}

// Handle processes the pattern_list tool call.
func (t *PatternListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ns := req.GetString("namespace", "")
	if ns == "" {
		return mcp.NewToolResultError("'namespace' is required"), nil
	}

	minConfidence := floatArg(req, "min_confidence", t.store.MinConfidence())
	limit := intArg(req, "limit", 20)

	patterns, err := t.store.ByNamespace(ns, minConfidence, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}

	if len(patterns) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No patterns in namespace %q.", ns)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d patterns in %s:\n\n", len(patterns), ns)
	for i, p := range patterns {
		fmt.Fprintf(&b, "[%d] %s (%s, confidence %.2f)\n    %s\n\n",
			i+1, p.ID, p.Type, p.Confidence, truncate(p.Content, 300))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// formatSearchResults renders search results best match first.
func formatSearchResults(results []pattern.SearchResult) string {
	if len(results) == 0 {
		return "No patterns found matching your query."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d patterns:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s (%s) - %s\n    %s\n    confidence: %.2f | namespaces: %s\n\n",
			i+1, r.ID, r.Type, r.Title,
			truncate(r.Content, 300),
			r.Confidence, strings.Join(r.Namespaces, ", "),
		)
	}
	return b.String()
}
