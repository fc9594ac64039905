package sessiontools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/codingbuddy/internal/session"
)

// ListTool handles the session_list MCP tool.
type ListTool struct {
	store *session.Store
}

// NewListTool creates a ListTool.
func NewListTool(store *session.Store) *ListTool {
	return &ListTool{store: store}
}

// Definition returns the MCP tool definition for session_list.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("session_list",
		mcp.WithDescription("List every session document in this project, newest first."),
	)
}

// Handle processes the session_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sums, err := t.store.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sessions: %v", err)), nil
	}

	var sb strings.Builder
	if len(sums) == 0 {
		sb.WriteString("No sessions yet.\n")
	} else {
		sb.WriteString("| Session | Title | Status | Modes | Updated |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, s := range sums {
			modes := make([]string, len(s.Modes))
			for i, m := range s.Modes {
				modes[i] = string(m)
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				s.ID, s.Title, s.Status, strings.Join(modes, ", "), s.UpdatedAt)
		}
	}

	stats := t.store.Cache().Stats()
	fmt.Fprintf(&sb, "\n_%d session(s) · cache %d/%d · active cached: %t_\n",
		len(sums), stats.Size, stats.MaxSize, stats.HasActive)

	return mcp.NewToolResultText(sb.String()), nil
}
