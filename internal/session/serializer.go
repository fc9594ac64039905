package session

import (
	"fmt"
	"strconv"
	"strings"
)

// Serialize renders doc as markdown with the labels of exactly one
// language. Values pass through verbatim; enums are written as their
// canonical tokens. Empty optional fields and lists are omitted entirely.
func Serialize(doc *Document, lang Language) string {
	l := LabelsFor(lang)
	var b strings.Builder

	fmt.Fprintf(&b, "# %s: %s\n\n", l.Session, doc.Metadata.Title)
	fmt.Fprintf(&b, "**%s**: %s\n", l.Created, doc.Metadata.CreatedAt)
	fmt.Fprintf(&b, "**%s**: %s\n", l.Updated, doc.Metadata.UpdatedAt)
	fmt.Fprintf(&b, "**%s**: %s\n", l.Status, doc.Metadata.Status)
	b.WriteString("\n---\n")

	for i := range doc.Sections {
		writeSection(&b, &doc.Sections[i], l)
	}

	return b.String()
}

func writeSection(b *strings.Builder, s *Section, l Labels) {
	fmt.Fprintf(b, "\n## %s (%s)\n", s.Mode, s.Timestamp)

	var fields []string
	if s.PrimaryAgent != "" {
		fields = append(fields, fmt.Sprintf("**%s**: %s", l.PrimaryAgent, s.PrimaryAgent))
	}
	if s.RecommendedActAgent != "" {
		line := fmt.Sprintf("**%s**: %s", l.RecommendedActAgent, s.RecommendedActAgent)
		if s.RecommendedActAgentConfidence != nil {
			line += fmt.Sprintf(" (%s: %s)", l.Confidence, formatConfidence(*s.RecommendedActAgentConfidence))
		}
		fields = append(fields, line)
	}
	if len(s.Specialists) > 0 {
		fields = append(fields, fmt.Sprintf("**%s**: %s", l.Specialists, strings.Join(s.Specialists, ", ")))
	}
	if s.Status != "" {
		fields = append(fields, fmt.Sprintf("**%s**: %s", l.Status, s.Status))
	}
	if len(fields) > 0 {
		b.WriteString("\n")
		for _, f := range fields {
			b.WriteString(f)
			b.WriteString("\n")
		}
	}

	if s.Task != "" {
		fmt.Fprintf(b, "\n### %s\n%s\n", l.Task, s.Task)
	}
	writeList(b, l.Decisions, s.Decisions)
	writeList(b, l.Notes, s.Notes)

	b.WriteString("\n---\n")
}

func writeList(b *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n", header)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}
