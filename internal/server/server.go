// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources. No business logic
// lives here, only wiring.
package server

import (
	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/codingbuddy/internal/config"
	"github.com/HendryAvila/codingbuddy/internal/journal"
	"github.com/HendryAvila/codingbuddy/internal/logging"
	"github.com/HendryAvila/codingbuddy/internal/prompts"
	"github.com/HendryAvila/codingbuddy/internal/resources"
	"github.com/HendryAvila/codingbuddy/internal/session"
	"github.com/HendryAvila/codingbuddy/internal/sessiontools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Components are the shared dependencies both the MCP server and the CLI use.
type Components struct {
	Config  *config.Provider
	Store   *session.Store
	Journal *journal.Journal // nil when disabled or unavailable
}

// NewComponents builds the store and, if enabled, the journal.
//
// The journal is an independent subsystem: if it fails to initialize,
// session documents keep working. A warning is logged and the store runs
// without a recorder. The returned cleanup is always non-nil.
func NewComponents(cfg *config.Provider, logger *log.Logger) (*Components, func()) {
	if logger == nil {
		logger = logging.Discard()
	}

	opts := []session.Option{
		session.WithLogger(logging.Module(logger, "session")),
		session.WithFileTimeout(cfg.FileTimeout()),
	}

	c := &Components{Config: cfg}
	cleanup := noop

	if cfg.JournalEnabled() {
		j, err := journal.New(journal.Config{DataDir: cfg.JournalDir(), Project: cfg.ProjectRoot()})
		if err != nil {
			logger.Warn("journal disabled", "err", err)
		} else {
			c.Journal = j
			opts = append(opts, session.WithRecorder(j))
			jlog := logging.Module(logger, "journal")
			cleanup = func() {
				if err := j.Close(); err != nil {
					jlog.Warn("journal close", "err", err)
				}
			}
		}
	}

	c.Store = session.NewStore(cfg, opts...)
	return c, cleanup
}

// New creates and configures the MCP server with all tools, prompts and
// resources registered.
//
// The returned cleanup closes the journal and must be called on shutdown
// (typically via defer). It is always non-nil.
func New(cfg *config.Provider, logger *log.Logger) (*server.MCPServer, func(), error) {
	c, cleanup := NewComponents(cfg, logger)

	s := server.NewMCPServer(
		"codingbuddy",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerSessionTools(s, c)

	// --- Register prompts ---

	resumePrompt := prompts.NewResumePrompt(c.Store)
	s.AddPrompt(resumePrompt.Definition(), resumePrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(c.Store)
	s.AddResource(resourceHandler.ActiveResource(), resourceHandler.HandleActive)
	s.AddResource(resourceHandler.ListResource(), resourceHandler.HandleList)
	s.AddResourceTemplate(resourceHandler.SessionResourceTemplate(), resourceHandler.HandleSession)

	return s, cleanup, nil
}

// noop is the cleanup used when there is nothing to close.
func noop() {}

func registerSessionTools(s *server.MCPServer, c *Components) {
	createTool := sessiontools.NewCreateTool(c.Store)
	s.AddTool(createTool.Definition(), createTool.Handle)

	getTool := sessiontools.NewGetTool(c.Store)
	s.AddTool(getTool.Definition(), getTool.Handle)

	activeTool := sessiontools.NewActiveTool(c.Store)
	s.AddTool(activeTool.Definition(), activeTool.Handle)

	updateTool := sessiontools.NewUpdateTool(c.Store)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	setStatusTool := sessiontools.NewSetStatusTool(c.Store)
	s.AddTool(setStatusTool.Definition(), setStatusTool.Handle)

	listTool := sessiontools.NewListTool(c.Store)
	s.AddTool(listTool.Definition(), listTool.Handle)

	// History needs the journal.
	if c.Journal != nil {
		historyTool := sessiontools.NewHistoryTool(c.Journal)
		s.AddTool(historyTool.Definition(), historyTool.Handle)
	}
}

// serverInstructions returns the system instructions that tell the AI
// how to use codingbuddy session documents.
func serverInstructions() string {
	return `You have access to codingbuddy session documents: a markdown record of one
task's PLAN → ACT → EVAL workflow, stored under docs/codingbuddy/sessions/.

## Modes
- PLAN: understand the task, decide the approach, pick the agent for ACT
- ACT: implement; record what was done and anything blocking
- EVAL: review the result; record findings as notes
- AUTO: run PLAN → ACT → EVAL in a loop without stopping

## Workflow
1. At the start of any mode, call session_active. If it returns a session,
   continue it. Otherwise call session_create with a short task title.
2. After each mode, call session_update with the session_id and the mode.
   Pass decisions and notes as lists. They are appended to what is already
   recorded and duplicates are skipped. task, primary_agent, status and the
   other single-value fields replace the previous value.
3. When the task is finished, call session_set_status with "completed".

## CRITICAL
- Session tools are STORAGE tools. They save content YOU write.
- NEVER record placeholder text like "TBD".
- Status values are always the English tokens (in_progress, completed,
  blocked for sections; active, completed, archived for sessions), whatever
  language the document labels are written in.`
}
