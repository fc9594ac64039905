package sessiontools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/codingbuddy/internal/session"
)

// CreateTool handles the session_create MCP tool.
type CreateTool struct {
	store *session.Store
}

// NewCreateTool creates a CreateTool.
func NewCreateTool(store *session.Store) *CreateTool {
	return &CreateTool{store: store}
}

// Definition returns the MCP tool definition for session_create.
func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool("session_create",
		mcp.WithDescription(
			"Start a session document for a task. The id is derived from today's date "+
				"and the title; calling again with the same title on the same day returns "+
				"the existing session instead of overwriting it.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Task title, e.g. 'Implement Auth' (max 200 characters)"),
		),
	)
}

// Handle processes the session_create tool call.
func (t *CreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := strings.TrimSpace(req.GetString("title", ""))
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	res := t.store.Create(ctx, title)
	if !res.Success {
		return failureResult("session_create", res), nil
	}

	if !res.Created {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Session `%s` already exists (%s). Continue it with session_update.",
			res.SessionID, res.FilePath,
		)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Session `%s` created at %s.\nRecord each mode with session_update (mode: PLAN, ACT, EVAL or AUTO).",
		res.SessionID, res.FilePath,
	)), nil
}
