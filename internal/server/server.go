// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it builds the configuration value, opens
// the tiered stores, and injects them into the tools that depend on them.
// No business logic lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/cortexhq/cortex/internal/config"
	"github.com/cortexhq/cortex/internal/conversation"
	"github.com/cortexhq/cortex/internal/hotspot"
	"github.com/cortexhq/cortex/internal/mcptools"
	"github.com/cortexhq/cortex/internal/pattern"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all memory tools
// registered. The returned cleanup function closes the store
// connections and must be called on shutdown (typically via defer).
// It is always non-nil and safe to call.
func New(cfg config.Config) (*server.MCPServer, func(), error) {
	// --- Open the tiered stores ---

	patternStore, err := pattern.New(pattern.Config{
		DataDir:          cfg.DataDir,
		MaxSearchResults: cfg.MaxSearchResults,
		MinConfidence:    cfg.MinConfidence,
	})
	if err != nil {
		return nil, noop, fmt.Errorf("opening pattern store: %w", err)
	}

	convStore, err := conversation.New(conversation.Config{
		DataDir:         cfg.DataDir,
		Capacity:        cfg.SessionCapacity,
		BoundaryTimeout: cfg.BoundaryTimeout,
	})
	if err != nil {
		_ = patternStore.Close()
		return nil, noop, fmt.Errorf("opening conversation store: %w", err)
	}

	hotspotStore, err := hotspot.NewStore(hotspot.Config{DataDir: cfg.DataDir})
	if err != nil {
		_ = patternStore.Close()
		_ = convStore.Close()
		return nil, noop, fmt.Errorf("opening hotspot store: %w", err)
	}

	cleanup := func() {
		if err := patternStore.Close(); err != nil {
			log.Printf("WARNING: pattern store close: %v", err)
		}
		if err := convStore.Close(); err != nil {
			log.Printf("WARNING: conversation store close: %v", err)
		}
		if err := hotspotStore.Close(); err != nil {
			log.Printf("WARNING: hotspot store close: %v", err)
		}
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"cortex",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Knowledge graph tools (Tier 2) ---

	searchTool := mcptools.NewPatternSearchTool(patternStore)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	recallTool := mcptools.NewPatternRecallTool(patternStore)
	s.AddTool(recallTool.Definition(), recallTool.Handle)

	listTool := mcptools.NewPatternListTool(patternStore)
	s.AddTool(listTool.Definition(), listTool.Handle)

	saveTool := mcptools.NewPatternSaveTool(patternStore)
	s.AddTool(saveTool.Definition(), saveTool.Handle)

	getTool := mcptools.NewPatternGetTool(patternStore)
	s.AddTool(getTool.Definition(), getTool.Handle)

	reinforceTool := mcptools.NewPatternReinforceTool(patternStore)
	s.AddTool(reinforceTool.Definition(), reinforceTool.Handle)

	statsTool := mcptools.NewStatsTool(patternStore, convStore)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	// --- Working memory tools (Tier 1) ---

	sessionStart := mcptools.NewSessionStartTool(convStore)
	s.AddTool(sessionStart.Definition(), sessionStart.Handle)

	sessionEnd := mcptools.NewSessionEndTool(convStore)
	s.AddTool(sessionEnd.Definition(), sessionEnd.Handle)

	sessionActive := mcptools.NewSessionActiveTool(convStore)
	s.AddTool(sessionActive.Definition(), sessionActive.Handle)

	sessionInfo := mcptools.NewSessionInfoTool(convStore)
	s.AddTool(sessionInfo.Definition(), sessionInfo.Handle)

	sessionList := mcptools.NewSessionListTool(convStore)
	s.AddTool(sessionList.Definition(), sessionList.Handle)

	messageLog := mcptools.NewMessageLogTool(convStore)
	s.AddTool(messageLog.Definition(), messageLog.Handle)

	// --- Development context tools (Tier 3) ---

	analyzer := hotspot.NewAnalyzer()

	hotspotAnalyze := mcptools.NewHotspotAnalyzeTool(analyzer, hotspotStore)
	s.AddTool(hotspotAnalyze.Definition(), hotspotAnalyze.Handle)

	hotspotList := mcptools.NewHotspotListTool(hotspotStore)
	s.AddTool(hotspotList.Definition(), hotspotList.Handle)

	hotspotUnstable := mcptools.NewHotspotUnstableTool(hotspotStore)
	s.AddTool(hotspotUnstable.Definition(), hotspotUnstable.Handle)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used when initialization fails
// before all stores are open.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use the CORTEX memory tiers effectively.
func serverInstructions() string {
	return `You have access to CORTEX, a tiered persistent memory for coding sessions.

## The three tiers

- Tier 1 (working memory): recent conversations, bounded and FIFO-evicted.
  Use session_start / message_log / session_end around units of work.
  session_active tells you whether a conversation is still open — an idle
  conversation closes itself after the boundary timeout.
- Tier 2 (knowledge graph): long-lived learned patterns with confidence
  scores and namespaces. Save durable insights with pattern_save; retrieve
  with pattern_recall (biased toward the current namespace) or
  pattern_search (raw full-text). Reinforce patterns that proved useful.
- Tier 3 (development context): file churn metrics. Run hotspot_analyze
  after significant work; consult hotspot_unstable before touching
  high-risk files.

## Conventions

- Namespaces partition patterns: cortex.* for framework knowledge,
  workspace.<project>.* for project-specific knowledge, CORTEX-core for
  cross-cutting insights.
- Search queries use FTS5 syntax (AND/OR/NOT, "phrase", prefix*). If a
  query fails to parse it is retried literally, so plain text always works.
- Confidence is 0.0–1.0. Patterns below the confidence floor (0.5 by
  default) are filtered out of search results.`
}
