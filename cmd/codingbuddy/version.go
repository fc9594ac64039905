package main

import (
	"fmt"

	"github.com/spf13/cobra"

	cbserver "github.com/HendryAvila/codingbuddy/internal/server"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codingbuddy v%s\n", cbserver.Version)
		},
	}
}
