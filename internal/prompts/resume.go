// Package prompts implements MCP prompt handlers for session workflows.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/codingbuddy/internal/session"
)

// ResumePrompt handles the session-resume MCP prompt.
// It hands the active session to the AI and asks it to continue in a mode.
type ResumePrompt struct {
	store *session.Store
}

// NewResumePrompt creates a ResumePrompt.
func NewResumePrompt(store *session.Store) *ResumePrompt {
	return &ResumePrompt{store: store}
}

// Definition returns the MCP prompt definition for registration.
func (p *ResumePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("session-resume",
		mcp.WithPromptDescription(
			"Resume the active session: load its document and continue "+
				"in the requested mode, recording progress with session_update.",
		),
		mcp.WithArgument("mode",
			mcp.ArgumentDescription("Mode to continue in: PLAN, ACT, EVAL or AUTO. Default: the mode after the last one recorded"),
		),
	)
}

// Handle processes the session-resume prompt request.
func (p *ResumePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	doc := p.store.GetActive(ctx)
	if doc == nil {
		return &mcp.GetPromptResult{
			Description: "No active session",
			Messages: []mcp.PromptMessage{
				{
					Role: mcp.RoleUser,
					Content: mcp.NewTextContent(
						"There is no active session yet. Ask me for a short task title, " +
							"then call `session_create` with it and start in PLAN mode.",
					),
				},
			},
		}, nil
	}

	mode := nextMode(doc)
	if args := req.Params.Arguments; args != nil {
		if m, ok := args["mode"]; ok && m != "" {
			parsed, err := session.ParseMode(m)
			if err != nil {
				return nil, err
			}
			mode = parsed
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Resume session `%s` in %s mode.\n\n", doc.Metadata.ID, mode)
	sb.WriteString("Current document:\n\n```markdown\n")
	sb.WriteString(session.Serialize(doc, p.store.Language()))
	sb.WriteString("```\n\n")
	sb.WriteString("Then:\n")
	sb.WriteString("1. Summarize the decisions already made and anything marked blocked\n")
	fmt.Fprintf(&sb, "2. Continue the work in %s mode\n", mode)
	fmt.Fprintf(&sb, "3. Record progress with `session_update` (session_id: %s, mode: %s), adding new decisions and notes\n", doc.Metadata.ID, mode)
	sb.WriteString("4. When the task is done, call `session_set_status` with status completed")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Resume %s", doc.Metadata.Title),
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(sb.String()),
			},
		},
	}, nil
}

// nextMode follows PLAN → ACT → EVAL and stays in EVAL afterwards.
// AUTO sessions continue in AUTO.
func nextMode(doc *session.Document) session.Mode {
	if len(doc.Sections) == 0 {
		return session.ModePlan
	}
	switch doc.Sections[len(doc.Sections)-1].Mode {
	case session.ModePlan:
		return session.ModeAct
	case session.ModeAct, session.ModeEval:
		return session.ModeEval
	default:
		return session.ModeAuto
	}
}
