package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cortexhq/cortex/internal/conversation"
	"github.com/mark3labs/mcp-go/mcp"
)

// SessionStartTool handles the session_start MCP tool.
type SessionStartTool struct {
	store *conversation.Store
}

// NewSessionStartTool creates a SessionStartTool.
func NewSessionStartTool(store *conversation.Store) *SessionStartTool {
	return &SessionStartTool{store: store}
}

// Definition returns the MCP tool definition for session_start.
func (t *SessionStartTool) Definition() mcp.Tool {
	return mcp.NewTool("session_start",
		mcp.WithDescription(
			"Start a new conversation in working memory. Old completed conversations "+
				"are evicted FIFO when the retention cap is exceeded.",
		),
		mcp.WithString("intent",
			mcp.Description("Optional intent tag for the conversation"),
		),
		mcp.WithString("conversation_id",
			mcp.Description("Conversation id (default: generated UUID)"),
		),
	)
}

// Handle processes the session_start tool call.
func (t *SessionStartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	intent := req.GetString("intent", "")
	id := req.GetString("conversation_id", "")

	conversationID, err := t.store.StartSession(intent, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start session: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session %s started", conversationID)), nil
}

// ─── SessionEndTool ─────────────────────────────────────────────────────────

// SessionEndTool handles the session_end MCP tool.
type SessionEndTool struct {
	store *conversation.Store
}

// NewSessionEndTool creates a SessionEndTool.
func NewSessionEndTool(store *conversation.Store) *SessionEndTool {
	return &SessionEndTool{store: store}
}

// Definition returns the MCP tool definition for session_end.
func (t *SessionEndTool) Definition() mcp.Tool {
	return mcp.NewTool("session_end",
		mcp.WithDescription(
			"Mark a conversation completed. Ending an already-completed conversation is a no-op.",
		),
		mcp.WithString("conversation_id",
			mcp.Required(),
			mcp.Description("Conversation to close"),
		),
	)
}

// Handle processes the session_end tool call.
func (t *SessionEndTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("conversation_id", "")
	if id == "" {
		return mcp.NewToolResultError("'conversation_id' is required"), nil
	}

	if err := t.store.EndSession(id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to end session: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session %s completed", id)), nil
}

// ─── SessionActiveTool ──────────────────────────────────────────────────────

// SessionActiveTool handles the session_active MCP tool.
type SessionActiveTool struct {
	store *conversation.Store
}

// NewSessionActiveTool creates a SessionActiveTool.
func NewSessionActiveTool(store *conversation.Store) *SessionActiveTool {
	return &SessionActiveTool{store: store}
}

// Definition returns the MCP tool definition for session_active.
func (t *SessionActiveTool) Definition() mcp.Tool {
	return mcp.NewTool("session_active",
		mcp.WithDescription(
			"Return the current active conversation id, if any. A conversation idle past "+
				"the boundary timeout is closed as a side effect.",
		),
	)
}

// Handle processes the session_active tool call.
func (t *SessionActiveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := t.store.GetActiveSession()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read active session: %v", err)), nil
	}
	if id == "" {
		return mcp.NewToolResultText("No active session."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Active session: %s", id)), nil
}

// ─── SessionInfoTool ────────────────────────────────────────────────────────

// SessionInfoTool handles the session_info MCP tool.
type SessionInfoTool struct {
	store *conversation.Store
}

// NewSessionInfoTool creates a SessionInfoTool.
func NewSessionInfoTool(store *conversation.Store) *SessionInfoTool {
	return &SessionInfoTool{store: store}
}

// Definition returns the MCP tool definition for session_info.
func (t *SessionInfoTool) Definition() mcp.Tool {
	return mcp.NewTool("session_info",
		mcp.WithDescription("Show one conversation's status, timing, and message count."),
		mcp.WithString("conversation_id",
			mcp.Required(),
			mcp.Description("Conversation identifier"),
		),
	)
}

// Handle processes the session_info tool call.
func (t *SessionInfoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("conversation_id", "")
	if id == "" {
		return mcp.NewToolResultError("'conversation_id' is required"), nil
	}

	info, err := t.store.GetSessionInfo(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get session info: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session %s\n", info.ID)
	fmt.Fprintf(&b, "status: %s | started: %s | last activity: %s\n", info.Status, info.StartTime, info.LastActivity)
	if info.EndTime != nil {
		fmt.Fprintf(&b, "ended: %s\n", *info.EndTime)
	}
	if info.Intent != nil {
		fmt.Fprintf(&b, "intent: %s\n", *info.Intent)
	}
	fmt.Fprintf(&b, "messages: %d\n", info.MessageCount)
	return mcp.NewToolResultText(b.String()), nil
}

// ─── SessionListTool ────────────────────────────────────────────────────────

// SessionListTool handles the session_list MCP tool.
type SessionListTool struct {
	store *conversation.Store
}

// NewSessionListTool creates a SessionListTool.
func NewSessionListTool(store *conversation.Store) *SessionListTool {
	return &SessionListTool{store: store}
}

// Definition returns the MCP tool definition for session_list.
func (t *SessionListTool) Definition() mcp.Tool {
	return mcp.NewTool("session_list",
		mcp.WithDescription("List every retained conversation, newest first."),
	)
}

// Handle processes the session_list tool call.
func (t *SessionListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := t.store.AllSessions()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sessions: %v", err)), nil
	}
	if len(sessions) == 0 {
		return mcp.NewToolResultText("No conversations in working memory."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d conversations:\n\n", len(sessions))
	for _, c := range sessions {
		intent := ""
		if c.Intent != nil {
			intent = fmt.Sprintf(" intent=%s", *c.Intent)
		}
		fmt.Fprintf(&b, "- %s [%s] started %s%s\n", c.ID, c.Status, c.StartTime, intent)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── MessageLogTool ─────────────────────────────────────────────────────────

// MessageLogTool handles the message_log MCP tool.
type MessageLogTool struct {
	store *conversation.Store
}

// NewMessageLogTool creates a MessageLogTool.
func NewMessageLogTool(store *conversation.Store) *MessageLogTool {
	return &MessageLogTool{store: store}
}

// Definition returns the MCP tool definition for message_log.
func (t *MessageLogTool) Definition() mcp.Tool {
	return mcp.NewTool("message_log",
		mcp.WithDescription(
			"Append a message to a conversation. Advances the conversation's last-activity "+
				"timestamp, which feeds boundary detection.",
		),
		mcp.WithString("conversation_id",
			mcp.Required(),
			mcp.Description("Conversation identifier"),
		),
		mcp.WithString("role",
			mcp.Required(),
			mcp.Description("Message role, e.g. user or agent"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Message content"),
		),
	)
}

// Handle processes the message_log tool call.
func (t *MessageLogTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("conversation_id", "")
	role := req.GetString("role", "")
	content := req.GetString("content", "")
	if id == "" {
		return mcp.NewToolResultError("'conversation_id' is required"), nil
	}
	if role == "" {
		return mcp.NewToolResultError("'role' is required"), nil
	}
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	msgID, err := t.store.AddMessage(id, role, content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to log message: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Message #%d logged to %s", msgID, id)), nil
}
