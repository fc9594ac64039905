package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	cbserver "github.com/HendryAvila/codingbuddy/internal/server"
	"github.com/HendryAvila/codingbuddy/internal/session"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Create, inspect and update session documents",
	}
	cmd.AddCommand(
		newSessionCreateCmd(a),
		newSessionShowCmd(a),
		newSessionActiveCmd(a),
		newSessionUpdateCmd(a),
		newSessionStatusCmd(a),
		newSessionListCmd(a),
	)
	return cmd
}

// withStore runs fn against a freshly wired store and closes the journal after.
func (a *app) withStore(fn func(*session.Store) error) error {
	c, cleanup := cbserver.NewComponents(a.cfg, a.logger)
	defer cleanup()
	return fn(c.Store)
}

func resultError(res session.Result) error {
	return fmt.Errorf("[%s] %s", res.Code, res.Error)
}

func newSessionCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <title>",
		Short: "Create a session document (no-op if it already exists today)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			return a.withStore(func(s *session.Store) error {
				res := s.Create(cmd.Context(), title)
				if !res.Success {
					return resultError(res)
				}
				verb := "created"
				if !res.Created {
					verb = "exists"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", verb, res.SessionID, res.FilePath)
				return nil
			})
		},
	}
}

func newSessionShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a session document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *session.Store) error {
				doc := s.Get(cmd.Context(), args[0])
				if doc == nil {
					return fmt.Errorf("session not found: %s", args[0])
				}
				return writeDocument(cmd.OutOrStdout(), s, doc)
			})
		},
	}
}

func newSessionActiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Print the most recent active session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(func(s *session.Store) error {
				doc := s.GetActive(cmd.Context())
				if doc == nil {
					return errors.New("no active session")
				}
				return writeDocument(cmd.OutOrStdout(), s, doc)
			})
		},
	}
}

func newSessionUpdateCmd(a *app) *cobra.Command {
	var (
		patch      session.Section
		mode       string
		status     string
		confidence float64
	)

	cmd := &cobra.Command{
		Use:   "update <session-id>",
		Short: "Merge a mode section into a session",
		Long: `Merge a mode section into a session. Decisions and notes are appended
(duplicates skipped); every other flag replaces the previous value.`,
		Example: `  codingbuddy session update 2026-01-11-implement-auth --mode PLAN \
    --task "Design the API" --decision "Use REST" --decision "JWT for auth"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch.Mode = session.Mode(mode)
			patch.Status = session.SectionStatus(status)
			if cmd.Flags().Changed("confidence") {
				patch.RecommendedActAgentConfidence = &confidence
			}
			return a.withStore(func(s *session.Store) error {
				res := s.Update(cmd.Context(), args[0], patch)
				if !res.Success {
					return resultError(res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated\t%s\t%s\n", res.SessionID, strings.ToUpper(mode))
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&mode, "mode", "", "workflow mode: PLAN, ACT, EVAL, AUTO")
	f.StringVar(&patch.Task, "task", "", "task description")
	f.StringVar(&patch.PrimaryAgent, "primary-agent", "", "agent driving this mode")
	f.StringVar(&patch.RecommendedActAgent, "recommended-agent", "", "agent recommended for ACT")
	f.Float64Var(&confidence, "confidence", 0, "confidence in the recommended agent (0-1)")
	f.StringSliceVar(&patch.Specialists, "specialist", nil, "specialist agent (repeatable or comma-separated)")
	f.StringVar(&status, "status", "", "section status: in_progress, completed, blocked")
	f.StringArrayVar(&patch.Decisions, "decision", nil, "decision to append (repeatable)")
	f.StringArrayVar(&patch.Notes, "note", nil, "note to append (repeatable)")
	f.StringVar(&patch.Timestamp, "timestamp", "", "section timestamp (default: now)")
	_ = cmd.MarkFlagRequired("mode")
	return cmd
}

func newSessionStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id> <active|completed|archived>",
		Short: "Change a session's lifecycle status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *session.Store) error {
				res := s.UpdateStatus(cmd.Context(), args[0], args[1])
				if !res.Success {
					return resultError(res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", res.SessionID, strings.ToLower(args[1]))
				return nil
			})
		},
	}
}

func newSessionListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List session documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(func(s *session.Store) error {
				sums, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, sum := range sums {
					modes := make([]string, len(sum.Modes))
					for i, m := range sum.Modes {
						modes[i] = string(m)
					}
					fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", sum.ID, sum.Status, strings.Join(modes, ","), sum.Title)
				}
				return nil
			})
		},
	}
}

func writeDocument(w io.Writer, s *session.Store, doc *session.Document) error {
	_, err := io.WriteString(w, session.Serialize(doc, s.Language()))
	return err
}
