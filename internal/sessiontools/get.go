package sessiontools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/codingbuddy/internal/session"
)

// GetTool handles the session_get MCP tool.
type GetTool struct {
	store *session.Store
}

// NewGetTool creates a GetTool.
func NewGetTool(store *session.Store) *GetTool {
	return &GetTool{store: store}
}

// Definition returns the MCP tool definition for session_get.
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("session_get",
		mcp.WithDescription("Read a session document by id."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id, e.g. 2026-01-11-implement-auth"),
		),
	)
}

// Handle processes the session_get tool call.
func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	doc := t.store.Get(ctx, id)
	if doc == nil {
		return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", id)), nil
	}
	return mcp.NewToolResultText(renderDocument(doc, t.store)), nil
}

// ─── ActiveTool ─────────────────────────────────────────────────────────────

// ActiveTool handles the session_active MCP tool.
type ActiveTool struct {
	store *session.Store
}

// NewActiveTool creates an ActiveTool.
func NewActiveTool(store *session.Store) *ActiveTool {
	return &ActiveTool{store: store}
}

// Definition returns the MCP tool definition for session_active.
func (t *ActiveTool) Definition() mcp.Tool {
	return mcp.NewTool("session_active",
		mcp.WithDescription(
			"Return the most recent session whose status is still active. "+
				"Call this at the start of a mode to pick up where the last one left off.",
		),
	)
}

// Handle processes the session_active tool call.
func (t *ActiveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := t.store.GetActive(ctx)
	if doc == nil {
		return mcp.NewToolResultText("No active session. Start one with session_create."), nil
	}
	return mcp.NewToolResultText(renderDocument(doc, t.store)), nil
}
