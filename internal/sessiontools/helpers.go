// Package sessiontools provides MCP tool handlers for session documents.
//
// Each tool follows the same pattern:
//   - A struct with its dependencies injected via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() processes the request and returns a result
//
// Failures reported by the store come back as tool errors carrying the
// store's text code, never as protocol errors.
package sessiontools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/codingbuddy/internal/session"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// floatArg returns nil when the key is absent.
func floatArg(req mcp.CallToolRequest, key string) *float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return nil
	}
	return &v
}

// stringsArg accepts either a JSON array of strings or a single string.
func stringsArg(req mcp.CallToolRequest, key string) []string {
	if s, ok := req.GetArguments()[key].(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, item := range req.GetStringSlice(key, nil) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// failureResult converts a failed store Result into a tool error.
func failureResult(action string, res session.Result) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s failed [%s]: %s", action, res.Code, res.Error))
}

// renderDocument prints a document in the store's current language,
// preceded by its id and file path.
func renderDocument(doc *session.Document, store *session.Store) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session `%s`\n", doc.Metadata.ID)
	fmt.Fprintf(&sb, "File: %s\n\n", session.SessionFilePath(store.ProjectRoot(), doc.Metadata.ID))
	sb.WriteString(session.Serialize(doc, store.Language()))
	return sb.String()
}
