package session

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Mode tokens are never localized, so section boundaries are found
	// without consulting the label tables.
	sectionHeaderRe = regexp.MustCompile(`^##\s+(PLAN|ACT|EVAL|AUTO)\s+\((.*)\)$`)
	sessionHeaderRe = regexp.MustCompile(`^#\s+(.+?):\s*(.*)$`)
	fieldLineRe     = regexp.MustCompile(`^\*\*(.+?)\*\*:\s*(.*)$`)
	listHeaderRe    = regexp.MustCompile(`^###\s+(.+)$`)
	confidenceRe    = regexp.MustCompile(`^(.*?)\s*\(([^():]+):\s*([0-9]*\.?[0-9]+)\)$`)
)

// openList tracks which list (if any) subsequent "- " items belong to.
type openList int

const (
	listNone openList = iota
	listTask
	listDecisions
	listNotes
)

// Parse reads a session document. It never fails: lines it cannot classify
// are skipped and missing optional fields stay empty. Labels from every
// supported language are recognized on every line.
func Parse(text, sessionID string) *Document {
	doc := &Document{Metadata: Metadata{ID: sessionID}}

	current := -1 // index into doc.Sections
	list := listNone

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if m := sectionHeaderRe.FindStringSubmatch(trimmed); m != nil {
			mode := Mode(m[1])
			current = -1
			for i := range doc.Sections {
				if doc.Sections[i].Mode == mode {
					current = i
					break
				}
			}
			if current < 0 {
				doc.Sections = append(doc.Sections, Section{Mode: mode})
				current = len(doc.Sections) - 1
			}
			doc.Sections[current].Timestamp = strings.TrimSpace(m[2])
			list = listNone
			continue
		}

		if current < 0 {
			parseMetadataLine(&doc.Metadata, trimmed)
			continue
		}

		list = parseSectionLine(&doc.Sections[current], line, trimmed, list)
	}

	for i := range doc.Sections {
		doc.Sections[i].Task = trimTrailingBlankLines(doc.Sections[i].Task)
	}
	return doc
}

func parseMetadataLine(meta *Metadata, trimmed string) {
	if m := sessionHeaderRe.FindStringSubmatch(trimmed); m != nil {
		if sessionLabel[strings.TrimSpace(m[1])] {
			meta.Title = strings.TrimSpace(m[2])
		}
		return
	}

	m := fieldLineRe.FindStringSubmatch(trimmed)
	if m == nil {
		return
	}
	value := strings.TrimSpace(m[2])
	switch fieldLabels[strings.TrimSpace(m[1])] {
	case keyCreated:
		meta.CreatedAt = value
	case keyUpdated:
		meta.UpdatedAt = value
	case keyStatus:
		if st, err := ParseStatus(value); err == nil {
			meta.Status = st
		}
	}
}

// parseSectionLine classifies one line inside a section and returns the
// list that is open afterwards. Precedence: field lines, list headers,
// list items, then free text.
func parseSectionLine(sec *Section, line, trimmed string, list openList) openList {
	if trimmed == "" {
		// Paragraph breaks belong to the task while its block is open.
		if list == listTask && sec.Task != "" {
			sec.Task += "\n" + line
		}
		return list
	}
	if trimmed == "---" {
		return listNone
	}

	if m := fieldLineRe.FindStringSubmatch(trimmed); m != nil {
		if key := fieldLabels[strings.TrimSpace(m[1])]; key != keyNone {
			applyField(sec, key, strings.TrimSpace(m[2]))
			return list
		}
	}

	if m := listHeaderRe.FindStringSubmatch(trimmed); m != nil {
		switch headerLabels[strings.TrimSpace(m[1])] {
		case keyTask:
			return listTask
		case keyDecisions:
			return listDecisions
		case keyNotes:
			return listNotes
		}
	}

	if list == listDecisions || list == listNotes {
		if strings.HasPrefix(trimmed, "- ") {
			item := strings.TrimSpace(trimmed[2:])
			switch list {
			case listDecisions:
				sec.Decisions = appendUnique(sec.Decisions, item)
			case listNotes:
				sec.Notes = appendUnique(sec.Notes, item)
			}
		}
		return list
	}

	if sec.Task == "" {
		sec.Task = line
	} else {
		sec.Task += "\n" + line
	}
	return list
}

// trimTrailingBlankLines drops whitespace-only lines from the end of s.
func trimTrailingBlankLines(s string) string {
	for {
		i := strings.LastIndex(s, "\n")
		if i < 0 || strings.TrimSpace(s[i+1:]) != "" {
			return s
		}
		s = s[:i]
	}
}

func applyField(sec *Section, key labelKey, value string) {
	if value == "" {
		return
	}
	switch key {
	case keyPrimaryAgent:
		sec.PrimaryAgent = value
	case keyRecommendedActAgent:
		if m := confidenceRe.FindStringSubmatch(value); m != nil {
			if c, err := strconv.ParseFloat(m[3], 64); err == nil {
				sec.RecommendedActAgent = strings.TrimSpace(m[1])
				sec.RecommendedActAgentConfidence = &c
				return
			}
		}
		sec.RecommendedActAgent = value
	case keySpecialists:
		sec.Specialists = splitList(value)
	case keyStatus:
		if st, err := ParseSectionStatus(value); err == nil {
			sec.Status = st
		}
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// appendUnique appends item unless it is empty or already present.
func appendUnique(list []string, item string) []string {
	if item == "" {
		return list
	}
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
