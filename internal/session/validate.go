package session

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// MaxTitleLength caps session titles, in runes.
	MaxTitleLength = 200
	// MaxSessionIDLength caps session ids, in runes.
	MaxSessionIDLength = 100
)

// sessionIDPattern accepts every script a slug can carry in any supported
// language, so ids created under one language stay valid under another.
var sessionIDPattern = regexp.MustCompile(`^[a-z0-9\p{Hangul}\p{Hiragana}\p{Katakana}\p{Han}áéíóúñü-]+$`)

// ValidateTitle checks a (trimmed) session title.
func ValidateTitle(title string) error {
	err := validation.Validate(title,
		validation.Required.Error("title is required"),
		validation.RuneLength(1, MaxTitleLength).Error(fmt.Sprintf("title must be at most %d characters", MaxTitleLength)),
		validation.By(singleLine),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTitle, err)
	}
	return nil
}

// ValidateSessionID checks id against the allow-list. It never touches the
// filesystem.
func ValidateSessionID(id string) error {
	err := validation.Validate(id,
		validation.Required.Error("session id is required"),
		validation.RuneLength(1, MaxSessionIDLength).Error(fmt.Sprintf("session id must be at most %d characters", MaxSessionIDLength)),
		validation.By(rejectPathTokens),
		validation.Match(sessionIDPattern).Error("session id may only contain lowercase letters, digits, native script and hyphens"),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSessionID, err)
	}
	return nil
}

func rejectPathTokens(value any) error {
	s, _ := value.(string)
	switch {
	case strings.ContainsRune(s, 0):
		return errors.New("session id contains a null byte")
	case strings.Contains(s, ".."):
		return errors.New("session id contains '..'")
	case strings.ContainsAny(s, `/\`):
		return errors.New("session id contains a path separator")
	}
	return nil
}

// validatePatch checks a section patch after its mode has been normalized.
func validatePatch(p *Section) error {
	err := validation.ValidateStruct(p,
		validation.Field(&p.Mode, validation.Required, validation.In(ModePlan, ModeAct, ModeEval, ModeAuto)),
		validation.Field(&p.Status, validation.In(SectionInProgress, SectionCompleted, SectionBlocked)),
		validation.Field(&p.RecommendedActAgentConfidence, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&p.Timestamp, validation.By(singleLine)),
		validation.Field(&p.PrimaryAgent, validation.By(singleLine)),
		validation.Field(&p.RecommendedActAgent, validation.By(singleLine), validation.By(noConfidenceSuffix)),
		validation.Field(&p.Specialists, validation.Each(validation.By(singleLine), validation.By(noComma))),
		validation.Field(&p.Task, validation.By(plainTaskText)),
		validation.Field(&p.Decisions, validation.Each(validation.By(singleLine))),
		validation.Field(&p.Notes, validation.Each(validation.By(singleLine))),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return nil
}

// Values written on one markdown line must stay on it, or the next read
// splits them into unrelated fields and sections.
func singleLine(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, "\r\n") {
		return errors.New("must be a single line")
	}
	return nil
}

func noComma(value any) error {
	s, _ := value.(string)
	if strings.Contains(s, ",") {
		return errors.New("must not contain a comma")
	}
	return nil
}

func noConfidenceSuffix(value any) error {
	s, _ := value.(string)
	if confidenceRe.MatchString(s) {
		return errors.New("must not end with a parenthesized score")
	}
	return nil
}

// plainTaskText rejects task lines the parser would read as document
// structure: separators, section headers, known field lines and block headers.
func plainTaskText(value any) error {
	s, _ := value.(string)
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "---":
			return errors.New("task line must not be a '---' separator")
		case sectionHeaderRe.MatchString(trimmed):
			return fmt.Errorf("task line %q looks like a section header", trimmed)
		}
		if m := fieldLineRe.FindStringSubmatch(trimmed); m != nil && fieldLabels[strings.TrimSpace(m[1])] != keyNone {
			return fmt.Errorf("task line %q looks like a field line", trimmed)
		}
		if m := listHeaderRe.FindStringSubmatch(trimmed); m != nil && headerLabels[strings.TrimSpace(m[1])] != keyNone {
			return fmt.Errorf("task line %q looks like a block header", trimmed)
		}
	}
	return nil
}

// normalizeTask converts CR and CRLF line endings and drops surrounding blank
// lines, which the document format cannot preserve.
func normalizeTask(task string) string {
	task = strings.ReplaceAll(task, "\r\n", "\n")
	task = strings.ReplaceAll(task, "\r", "\n")
	for {
		i := strings.Index(task, "\n")
		if i < 0 || strings.TrimSpace(task[:i]) != "" {
			break
		}
		task = task[i+1:]
	}
	if strings.TrimSpace(task) == "" {
		return ""
	}
	return trimTrailingBlankLines(task)
}
