package main

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	cbserver "github.com/HendryAvila/codingbuddy/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, cleanup, err := cbserver.New(a.cfg, a.logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			a.logger.Info("serving", "version", cbserver.Version, "project_root", a.cfg.ProjectRoot(), "language", a.cfg.Language())

			// ServeStdio handles SIGINT/SIGTERM itself and returns on shutdown.
			return server.ServeStdio(s)
		},
	}
}
