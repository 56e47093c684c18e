package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cortexhq/cortex/internal/conversation"
	"github.com/cortexhq/cortex/internal/pattern"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatsTool handles the memory_stats MCP tool.
type StatsTool struct {
	patterns      *pattern.Store
	conversations *conversation.Store
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(patterns *pattern.Store, conversations *conversation.Store) *StatsTool {
	return &StatsTool{patterns: patterns, conversations: conversations}
}

// Definition returns the MCP tool definition for memory_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_stats",
		mcp.WithDescription("Show memory statistics: pattern counts, namespaces, and retained conversations."),
	)
}

// Handle processes the memory_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.patterns.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute stats: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Patterns: %d (%d pinned)\n", stats.TotalPatterns, stats.PinnedCount)

	sessions, err := t.conversations.AllSessions()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to count conversations: %v", err)), nil
	}
	active := 0
	for _, c := range sessions {
		if c.Status == conversation.StatusActive {
			active++
		}
	}
	fmt.Fprintf(&b, "Conversations: %d retained (%d active)\n", len(sessions), active)

	if len(stats.Namespaces) > 0 {
		fmt.Fprintf(&b, "Namespaces:\n")
		for _, ns := range stats.Namespaces {
			fmt.Fprintf(&b, "  - %s\n", ns)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
