package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/codingbuddy/internal/config"
	"github.com/HendryAvila/codingbuddy/internal/logging"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgFile     string
	projectRoot string
	language    string
	logLevel    string

	cfg    *config.Provider
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "codingbuddy",
		Short: "Session documents for PLAN → ACT → EVAL AI workflows",
		Long: `codingbuddy keeps one markdown document per task under
docs/codingbuddy/sessions/, recording what each workflow mode decided and did.

Run "codingbuddy serve" from your AI tool's MCP config:

  {
    "mcpServers": {
      "codingbuddy": {
        "command": "codingbuddy",
        "args": ["serve"]
      }
    }
  }`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: codingbuddy.config.{yaml,json,toml} in the project)")
	flags.StringVar(&a.projectRoot, "project-root", "", "project root (default: nearest directory with docs/codingbuddy)")
	flags.StringVar(&a.language, "language", "", "document language: en, ko, ja, zh, es")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(a),
		newSessionCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := config.Load(cwd, a.cfgFile)
	if err != nil {
		return err
	}
	if a.projectRoot != "" {
		cfg.SetProjectRoot(a.projectRoot)
	}
	if a.language != "" {
		cfg.SetLanguage(a.language)
	}

	level := cfg.LogLevel()
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		Format: cfg.LogFormat(),
		Prefix: "codingbuddy",
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	if used := cfg.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", "path", used)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}
