// Package logging builds the process logger. Output always goes to stderr:
// stdout carries the MCP stdio transport and must stay clean.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Format is text, json or logfmt. Empty means text.
	Format string
	// Prefix is prepended to every line.
	Prefix string
	// Writer overrides stderr. Tests use it to capture output.
	Writer io.Writer
}

// New constructs the root logger.
func New(opts Options) (*log.Logger, error) {
	level := log.InfoLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		parsed, err := log.ParseLevel(strings.ToLower(s))
		if err != nil {
			return nil, fmt.Errorf("logging: unsupported level %q", opts.Level)
		}
		level = parsed
	}

	var formatter log.Formatter
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("logging: unsupported format %q", opts.Format)
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          opts.Prefix,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	}), nil
}

// Module returns a child logger tagged with module=name.
func Module(l *log.Logger, name string) *log.Logger {
	if l == nil {
		return Discard()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return l
	}
	return l.With("module", name)
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
