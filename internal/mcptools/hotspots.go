package mcptools

import (
	"context"
	"fmt"

	"github.com/cortexhq/cortex/internal/hotspot"
	"github.com/mark3labs/mcp-go/mcp"
)

// HotspotAnalyzeTool handles the hotspot_analyze MCP tool.
type HotspotAnalyzeTool struct {
	analyzer *hotspot.Analyzer
	store    *hotspot.Store
}

// NewHotspotAnalyzeTool creates a HotspotAnalyzeTool.
func NewHotspotAnalyzeTool(analyzer *hotspot.Analyzer, store *hotspot.Store) *HotspotAnalyzeTool {
	return &HotspotAnalyzeTool{analyzer: analyzer, store: store}
}

// Definition returns the MCP tool definition for hotspot_analyze.
func (t *HotspotAnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("hotspot_analyze",
		mcp.WithDescription(
			"Analyze file churn from git history over a sliding window and persist the "+
				"results. Best-effort: a repo without history (or without git) yields an "+
				"empty report, not an error.",
		),
		mcp.WithString("repo_path",
			mcp.Required(),
			mcp.Description("Path to the git repository"),
		),
		mcp.WithNumber("days",
			mcp.Description("Analysis window in days (default: 30)"),
		),
	)
}

// Handle processes the hotspot_analyze tool call.
func (t *HotspotAnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoPath := req.GetString("repo_path", "")
	if repoPath == "" {
		return mcp.NewToolResultError("'repo_path' is required"), nil
	}
	days := intArg(req, "days", 30)

	hotspots := t.analyzer.AnalyzeHotspots(ctx, repoPath, days)
	if err := t.store.SaveHotspots(hotspots); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save hotspots: %v", err)), nil
	}
	return mcp.NewToolResultText(hotspot.FormatReport(hotspots)), nil
}

// ─── HotspotListTool ────────────────────────────────────────────────────────

// HotspotListTool handles the hotspot_list MCP tool.
type HotspotListTool struct {
	store *hotspot.Store
}

// NewHotspotListTool creates a HotspotListTool.
func NewHotspotListTool(store *hotspot.Store) *HotspotListTool {
	return &HotspotListTool{store: store}
}

// Definition returns the MCP tool definition for hotspot_list.
func (t *HotspotListTool) Definition() mcp.Tool {
	return mcp.NewTool("hotspot_list",
		mcp.WithDescription(
			"List stored file hotspots, most volatile first. Optionally filter by "+
				"stability class (STABLE, MODERATE, UNSTABLE).",
		),
		mcp.WithString("stability",
			mcp.Description("Filter by stability class"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 50)"),
		),
	)
}

// Handle processes the hotspot_list tool call.
func (t *HotspotListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stability := req.GetString("stability", "")
	limit := intArg(req, "limit", 50)

	var (
		hotspots []hotspot.FileHotspot
		err      error
	)
	if stability != "" {
		hotspots, err = t.store.GetHotspotsByStability(stability, limit)
	} else {
		hotspots, err = t.store.GetHotspots(limit)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list hotspots: %v", err)), nil
	}
	return mcp.NewToolResultText(hotspot.FormatReport(hotspots)), nil
}

// ─── HotspotUnstableTool ────────────────────────────────────────────────────

// HotspotUnstableTool handles the hotspot_unstable MCP tool.
type HotspotUnstableTool struct {
	store *hotspot.Store
}

// NewHotspotUnstableTool creates a HotspotUnstableTool.
func NewHotspotUnstableTool(store *hotspot.Store) *HotspotUnstableTool {
	return &HotspotUnstableTool{store: store}
}

// Definition returns the MCP tool definition for hotspot_unstable.
func (t *HotspotUnstableTool) Definition() mcp.Tool {
	return mcp.NewTool("hotspot_unstable",
		mcp.WithDescription(
			"List files classified UNSTABLE (churn >= 20% of commits in the window) — "+
				"the highest-risk files to touch.",
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 50)"),
		),
	)
}

// Handle processes the hotspot_unstable tool call.
func (t *HotspotUnstableTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req, "limit", 50)

	hotspots, err := t.store.GetUnstableFiles(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list unstable files: %v", err)), nil
	}
	return mcp.NewToolResultText(hotspot.FormatReport(hotspots)), nil
}
