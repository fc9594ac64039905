// Package resources implements MCP resource handlers for session documents.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (codingbuddy://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/codingbuddy/internal/session"
)

const (
	ActiveURI       = "codingbuddy://session/active"
	ListURI         = "codingbuddy://sessions"
	SessionTemplate = "codingbuddy://session/{id}"

	sessionPrefix = "codingbuddy://session/"
)

// Handler manages session resource endpoints.
type Handler struct {
	store *session.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *session.Store) *Handler {
	return &Handler{store: store}
}

// ActiveResource returns the MCP resource definition for the active session.
func (h *Handler) ActiveResource() mcp.Resource {
	return mcp.NewResource(
		ActiveURI,
		"Active Session",
		mcp.WithResourceDescription("Markdown of the most recent session that is still active"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleActive returns the active session document as markdown.
func (h *Handler) HandleActive(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc := h.store.GetActive(ctx)
	if doc == nil {
		return textResource(req.Params.URI, "text/plain", "No active session."), nil
	}
	return textResource(req.Params.URI, "text/markdown", session.Serialize(doc, h.store.Language())), nil
}

// ListResource returns the MCP resource definition for the session index.
func (h *Handler) ListResource() mcp.Resource {
	return mcp.NewResource(
		ListURI,
		"Session Index",
		mcp.WithResourceDescription("Every session document in the project with status and recorded modes"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleList returns the session summaries as JSON.
func (h *Handler) HandleList(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sums, err := h.store.List(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if sums == nil {
		sums = []session.Summary{}
	}

	data, err := json.MarshalIndent(sums, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling sessions: %w", err)
	}
	return textResource(req.Params.URI, "application/json", string(data)), nil
}

// SessionResourceTemplate returns the template for reading one session by id.
func (h *Handler) SessionResourceTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		SessionTemplate,
		"Session Document",
		mcp.WithTemplateDescription("Markdown of one session document, addressed by id"),
		mcp.WithTemplateMIMEType("text/markdown"),
	)
}

// HandleSession returns the session named by the URI's last segment.
func (h *Handler) HandleSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id := strings.TrimPrefix(req.Params.URI, sessionPrefix)
	if id == req.Params.URI || id == "" {
		return errorResource(req.Params.URI, "session id missing from URI"), nil
	}

	doc := h.store.Get(ctx, id)
	if doc == nil {
		return errorResource(req.Params.URI, "session not found: "+id), nil
	}
	return textResource(req.Params.URI, "text/markdown", session.Serialize(doc, h.store.Language())), nil
}
