package sessiontools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/codingbuddy/internal/session"
)

// UpdateTool handles the session_update MCP tool.
type UpdateTool struct {
	store *session.Store
}

// NewUpdateTool creates an UpdateTool.
func NewUpdateTool(store *session.Store) *UpdateTool {
	return &UpdateTool{store: store}
}

// Definition returns the MCP tool definition for session_update.
func (t *UpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("session_update",
		mcp.WithDescription(
			"Record a mode section in a session. If the mode already has a section, "+
				"decisions and notes are appended (duplicates skipped) and every other "+
				"field you pass replaces the previous value.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id"),
		),
		mcp.WithString("mode",
			mcp.Required(),
			mcp.Description("Workflow mode"),
			mcp.Enum("PLAN", "ACT", "EVAL", "AUTO"),
		),
		mcp.WithString("task",
			mcp.Description("What this mode is working on (replaces the previous task)"),
		),
		mcp.WithString("primary_agent",
			mcp.Description("Agent driving this mode"),
		),
		mcp.WithString("recommended_act_agent",
			mcp.Description("Agent recommended for the ACT mode"),
		),
		mcp.WithNumber("recommended_act_agent_confidence",
			mcp.Description("Confidence in the recommendation, between 0 and 1"),
		),
		mcp.WithArray("specialists",
			mcp.Description("Specialist agents consulted"),
			mcp.WithStringItems(),
		),
		mcp.WithString("status",
			mcp.Description("Section status"),
			mcp.Enum("in_progress", "completed", "blocked"),
		),
		mcp.WithArray("decisions",
			mcp.Description("Decisions to append"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("notes",
			mcp.Description("Notes to append"),
			mcp.WithStringItems(),
		),
		mcp.WithString("timestamp",
			mcp.Description("Section timestamp; defaults to now in the configured language's format"),
		),
	)
}

// Handle processes the session_update tool call.
func (t *UpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	mode := req.GetString("mode", "")
	if mode == "" {
		return mcp.NewToolResultError("'mode' is required"), nil
	}

	patch := session.Section{
		Mode:                          session.Mode(mode),
		Timestamp:                     strings.TrimSpace(req.GetString("timestamp", "")),
		PrimaryAgent:                  strings.TrimSpace(req.GetString("primary_agent", "")),
		RecommendedActAgent:           strings.TrimSpace(req.GetString("recommended_act_agent", "")),
		RecommendedActAgentConfidence: floatArg(req, "recommended_act_agent_confidence"),
		Specialists:                   stringsArg(req, "specialists"),
		Status:                        session.SectionStatus(strings.TrimSpace(req.GetString("status", ""))),
		Task:                          strings.TrimSpace(req.GetString("task", "")),
		Decisions:                     stringsArg(req, "decisions"),
		Notes:                         stringsArg(req, "notes"),
	}

	res := t.store.Update(ctx, id, patch)
	if !res.Success {
		return failureResult("session_update", res), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Session `%s` updated: %s section saved to %s",
		res.SessionID, strings.ToUpper(strings.TrimSpace(mode)), res.FilePath,
	)), nil
}

// ─── SetStatusTool ──────────────────────────────────────────────────────────

// SetStatusTool handles the session_set_status MCP tool.
type SetStatusTool struct {
	store *session.Store
}

// NewSetStatusTool creates a SetStatusTool.
func NewSetStatusTool(store *session.Store) *SetStatusTool {
	return &SetStatusTool{store: store}
}

// Definition returns the MCP tool definition for session_set_status.
func (t *SetStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("session_set_status",
		mcp.WithDescription(
			"Change a session's lifecycle status. Completed and archived sessions "+
				"are no longer returned by session_active.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id"),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("New status"),
			mcp.Enum("active", "completed", "archived"),
		),
	)
}

// Handle processes the session_set_status tool call.
func (t *SetStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	status := req.GetString("status", "")
	if status == "" {
		return mcp.NewToolResultError("'status' is required"), nil
	}

	res := t.store.UpdateStatus(ctx, id, status)
	if !res.Success {
		return failureResult("session_set_status", res), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session `%s` is now %s", res.SessionID, strings.ToLower(strings.TrimSpace(status)))), nil
}
