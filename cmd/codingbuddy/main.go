// codingbuddy: session document MCP server
//
// Records each task's PLAN → ACT → EVAL workflow as a markdown document
// under docs/codingbuddy/sessions/ and exposes it to AI coding tools over MCP.
//
// Usage:
//
//	codingbuddy serve                      # Start MCP server (stdio transport)
//	codingbuddy session create "My task"   # Manage session documents from a shell
//	codingbuddy version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
