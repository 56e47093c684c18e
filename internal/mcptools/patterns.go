package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cortexhq/cortex/internal/pattern"
	"github.com/mark3labs/mcp-go/mcp"
)

// PatternSaveTool handles the pattern_save MCP tool.
type PatternSaveTool struct {
	store *pattern.Store
}

// NewPatternSaveTool creates a PatternSaveTool.
func NewPatternSaveTool(store *pattern.Store) *PatternSaveTool {
	return &PatternSaveTool{store: store}
}

// Definition returns the MCP tool definition for pattern_save.
func (t *PatternSaveTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_save",
		mcp.WithDescription(
			"Save or update a learned pattern in the knowledge graph. Saving an existing "+
				"pattern_id replaces its content, confidence, and namespaces.",
		),
		mcp.WithString("pattern_id",
			mcp.Required(),
			mcp.Description("Unique pattern identifier"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short pattern title"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Full pattern content"),
		),
		mcp.WithString("pattern_type",
			mcp.Description("Category tag (default: general)"),
		),
		mcp.WithNumber("confidence",
			mcp.Description("Confidence 0.0–1.0 (default: 0.5, clamped)"),
		),
		mcp.WithString("source",
			mcp.Description("Provenance of the pattern"),
		),
		mcp.WithString("scope",
			mcp.Description("cortex (default) or application"),
		),
		mcp.WithString("namespaces",
			mcp.Description("Comma-separated namespaces (default: CORTEX-core)"),
		),
		mcp.WithBoolean("pinned",
			mcp.Description("Exempt from eviction/decay"),
		),
	)
}

// Handle processes the pattern_save tool call.
func (t *PatternSaveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("pattern_id", "")
	title := req.GetString("title", "")
	content := req.GetString("content", "")
	if id == "" {
		return mcp.NewToolResultError("'pattern_id' is required"), nil
	}
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	var namespaces []string
	if raw := req.GetString("namespaces", ""); raw != "" {
		for _, ns := range strings.Split(raw, ",") {
			if ns = strings.TrimSpace(ns); ns != "" {
				namespaces = append(namespaces, ns)
			}
		}
	}

	p := pattern.Pattern{
		ID:         id,
		Title:      title,
		Content:    content,
		Type:       req.GetString("pattern_type", ""),
		Confidence: floatArg(req, "confidence", 0.5),
		Source:     req.GetString("source", ""),
		Scope:      req.GetString("scope", ""),
		Namespaces: namespaces,
		Pinned:     boolArg(req, "pinned", false),
	}

	if err := t.store.Upsert(p); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save pattern: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Pattern %q saved", id)), nil
}

// ─── PatternGetTool ─────────────────────────────────────────────────────────

// PatternGetTool handles the pattern_get MCP tool.
type PatternGetTool struct {
	store *pattern.Store
}

// NewPatternGetTool creates a PatternGetTool.
func NewPatternGetTool(store *pattern.Store) *PatternGetTool {
	return &PatternGetTool{store: store}
}

// Definition returns the MCP tool definition for pattern_get.
func (t *PatternGetTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_get",
		mcp.WithDescription(
			"Fetch one pattern by id with full untruncated content. Records the access.",
		),
		mcp.WithString("pattern_id",
			mcp.Required(),
			mcp.Description("Pattern identifier"),
		),
	)
}

// Handle processes the pattern_get tool call.
func (t *PatternGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("pattern_id", "")
	if id == "" {
		return mcp.NewToolResultError("'pattern_id' is required"), nil
	}

	p, err := t.store.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get pattern: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s — %s (%s)\n", p.ID, p.Title, p.Type)
	fmt.Fprintf(&b, "confidence: %.2f | scope: %s | accesses: %d\n", p.Confidence, p.Scope, p.AccessCount)
	fmt.Fprintf(&b, "namespaces: %s\n\n%s\n", strings.Join(p.Namespaces, ", "), p.Content)
	return mcp.NewToolResultText(b.String()), nil
}

// ─── PatternReinforceTool ───────────────────────────────────────────────────

// PatternReinforceTool handles the pattern_reinforce MCP tool.
type PatternReinforceTool struct {
	store *pattern.Store
}

// NewPatternReinforceTool creates a PatternReinforceTool.
func NewPatternReinforceTool(store *pattern.Store) *PatternReinforceTool {
	return &PatternReinforceTool{store: store}
}

// Definition returns the MCP tool definition for pattern_reinforce.
func (t *PatternReinforceTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_reinforce",
		mcp.WithDescription(
			"Adjust a pattern's confidence by a delta (positive to reinforce, negative "+
				"to weaken). The result is clamped to [0,1].",
		),
		mcp.WithString("pattern_id",
			mcp.Required(),
			mcp.Description("Pattern identifier"),
		),
		mcp.WithNumber("delta",
			mcp.Required(),
			mcp.Description("Confidence adjustment, e.g. 0.1 or -0.05"),
		),
	)
}

// Handle processes the pattern_reinforce tool call.
func (t *PatternReinforceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("pattern_id", "")
	if id == "" {
		return mcp.NewToolResultError("'pattern_id' is required"), nil
	}
	delta := floatArg(req, "delta", 0)

	if err := t.store.Reinforce(id, delta); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to reinforce pattern: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Pattern %q confidence adjusted by %+.2f", id, delta)), nil
}
