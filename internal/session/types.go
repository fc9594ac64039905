// Package session implements the session document engine.
//
// A session document is a markdown file under docs/codingbuddy/sessions/
// recording one task's PLAN → ACT → EVAL → AUTO workflow history. The
// package is split the same way the change pipeline is:
//   - types.go: data model and enums
//   - labels.go: per-language label tables and the reverse lookup
//   - parser.go / serializer.go: the markdown format, in both directions
//   - merge.go: accumulate-lists / overwrite-scalars section merge
//   - cache.go: bounded TTL cache with an active-session pointer
//   - store.go: the Document Store composing all of the above
//
// Enumerated values (statuses, modes) are always written as fixed English
// tokens. Only structural labels are localized.
package session

import (
	"fmt"
	"strings"
)

// --- Mode enum ---

// Mode is the workflow mode a section records.
type Mode string

const (
	ModePlan Mode = "PLAN"
	ModeAct  Mode = "ACT"
	ModeEval Mode = "EVAL"
	ModeAuto Mode = "AUTO"
)

// validModes is the set of allowed modes.
var validModes = map[Mode]bool{
	ModePlan: true,
	ModeAct:  true,
	ModeEval: true,
	ModeAuto: true,
}

// ParseMode normalizes a user-supplied mode ("plan", " Act ") to its canonical token.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	if !validModes[m] {
		return "", fmt.Errorf("%w %q: must be one of: PLAN, ACT, EVAL, AUTO", ErrInvalidMode, s)
	}
	return m, nil
}

// --- Session status enum ---

// Status is the lifecycle state of a whole session document.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

var validStatuses = map[Status]bool{
	StatusActive:    true,
	StatusCompleted: true,
	StatusArchived:  true,
}

// ParseStatus returns the canonical session status for s.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !validStatuses[st] {
		return "", fmt.Errorf("%w %q: must be one of: active, completed, archived", ErrInvalidStatus, s)
	}
	return st, nil
}

// --- Section status enum ---

// SectionStatus is the progress state of a single mode section.
type SectionStatus string

const (
	SectionInProgress SectionStatus = "in_progress"
	SectionCompleted  SectionStatus = "completed"
	SectionBlocked    SectionStatus = "blocked"
)

var validSectionStatuses = map[SectionStatus]bool{
	SectionInProgress: true,
	SectionCompleted:  true,
	SectionBlocked:    true,
}

// ParseSectionStatus returns the canonical section status for s.
func ParseSectionStatus(s string) (SectionStatus, error) {
	st := SectionStatus(strings.ToLower(strings.TrimSpace(s)))
	if !validSectionStatuses[st] {
		return "", fmt.Errorf("%w %q: must be one of: in_progress, completed, blocked", ErrInvalidStatus, s)
	}
	return st, nil
}

// --- Core data structures ---

// Metadata is the document-level header of a session.
type Metadata struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	Status    Status `json:"status"`
}

// Section records one workflow mode. Zero values mean "absent": an empty
// string, a nil slice or a nil confidence pointer is never written out.
// The same type doubles as the patch accepted by Store.Update.
type Section struct {
	Mode                          Mode          `json:"mode"`
	Timestamp                     string        `json:"timestamp"`
	PrimaryAgent                  string        `json:"primary_agent,omitempty"`
	RecommendedActAgent           string        `json:"recommended_act_agent,omitempty"`
	RecommendedActAgentConfidence *float64      `json:"recommended_act_agent_confidence,omitempty"`
	Specialists                   []string      `json:"specialists,omitempty"`
	Status                        SectionStatus `json:"status,omitempty"`
	Task                          string        `json:"task,omitempty"`
	Decisions                     []string      `json:"decisions,omitempty"`
	Notes                         []string      `json:"notes,omitempty"`
}

// Document is a parsed session file.
type Document struct {
	Metadata Metadata  `json:"metadata"`
	Sections []Section `json:"sections"`
}

// Section returns the section recorded for mode, or nil.
func (d *Document) Section(mode Mode) *Section {
	for i := range d.Sections {
		if d.Sections[i].Mode == mode {
			return &d.Sections[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate without touching cached values.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Metadata: d.Metadata}
	if d.Sections != nil {
		out.Sections = make([]Section, len(d.Sections))
		for i, s := range d.Sections {
			out.Sections[i] = s.clone()
		}
	}
	return out
}

func (s Section) clone() Section {
	out := s
	if s.RecommendedActAgentConfidence != nil {
		c := *s.RecommendedActAgentConfidence
		out.RecommendedActAgentConfidence = &c
	}
	out.Specialists = cloneStrings(s.Specialists)
	out.Decisions = cloneStrings(s.Decisions)
	out.Notes = cloneStrings(s.Notes)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

// Result is the outcome of a write operation. Failures are reported here,
// never as panics or bare errors, so callers can relay them verbatim.
type Result struct {
	Success   bool   `json:"success"`
	Created   bool   `json:"created,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	Err       error  `json:"-"`
}

// Summary is a compact listing entry for one session file.
type Summary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    Status `json:"status"`
	UpdatedAt string `json:"updated_at"`
	Modes     []Mode `json:"modes"`
}

// Event describes a successful write, for activity recorders.
type Event struct {
	SessionID string
	Action    string // create | update | status
	Mode      Mode
	Detail    string
	At        string
}

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionStatus = "status"
)
