package sessiontools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/codingbuddy/internal/journal"
)

// HistoryTool handles the session_history MCP tool.
type HistoryTool struct {
	journal *journal.Journal
}

// NewHistoryTool creates a HistoryTool.
func NewHistoryTool(j *journal.Journal) *HistoryTool {
	return &HistoryTool{journal: j}
}

// Definition returns the MCP tool definition for session_history.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("session_history",
		mcp.WithDescription(
			"Show recent session activity (creates, mode updates, status changes) "+
				"from the journal, newest first.",
		),
		mcp.WithString("session_id",
			mcp.Description("Limit to one session; omit for all sessions in this project"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return (default 20, max 200)"),
		),
	)
}

// Handle processes the session_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	limit := intArg(req, "limit", journal.DefaultLimit)

	entries, err := t.journal.Recent(ctx, id, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read history: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No recorded activity."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Session activity (%d)\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&sb, "- %s `%s` %s", e.CreatedAt, e.SessionID, e.Action)
		if e.Mode != "" {
			fmt.Fprintf(&sb, " %s", e.Mode)
		}
		if e.Detail != "" {
			fmt.Fprintf(&sb, " (%s)", e.Detail)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}
