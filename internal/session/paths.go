package session

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	// MaxSlugLength caps the title part of a session id, in runes.
	MaxSlugLength = 50
	// fallbackSlug is used when a title has no sluggable characters.
	fallbackSlug = "untitled-session"
	fileExt      = ".md"
)

// SessionsPath returns <projectRoot>/docs/codingbuddy/sessions.
func SessionsPath(projectRoot string) string {
	return filepath.Join(projectRoot, "docs", "codingbuddy", "sessions")
}

// SessionFilePath returns the file path for a session id.
func SessionFilePath(projectRoot, id string) string {
	return filepath.Join(SessionsPath(projectRoot), id+fileExt)
}

// SessionID derives the id for a title created on date (YYYY-MM-DD).
func SessionID(date, title string, lang Language) string {
	return date + "-" + Slugify(title, lang)
}

// Slugify converts a title into a filesystem-safe slug.
// Example: "Implement Auth" → "implement-auth"
//
// Rules:
//   - Lowercase
//   - Whitespace and underscores become hyphens
//   - Characters outside [a-z0-9], the language's native script and
//     hyphens are removed
//   - Consecutive hyphens are collapsed, leading/trailing ones trimmed
//   - Truncated to MaxSlugLength runes (at a word boundary if possible)
//   - Nothing left returns "untitled-session"
func Slugify(title string, lang Language) string {
	s := strings.ToLower(strings.TrimSpace(title))

	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		switch {
		case isSlugRune(r, lang):
			b.WriteRune(r)
			prevHyphen = false
		case unicode.IsSpace(r) || r == '_' || r == '-':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return fallbackSlug
	}

	runes := []rune(slug)
	if len(runes) <= MaxSlugLength {
		return slug
	}

	truncated := string(runes[:MaxSlugLength])
	if lastHyphen := strings.LastIndex(truncated, "-"); lastHyphen > len(truncated)/2 {
		truncated = truncated[:lastHyphen]
	}
	return strings.TrimRight(truncated, "-")
}

func isSlugRune(r rune, lang Language) bool {
	if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
		return true
	}
	switch lang {
	case LangKorean:
		return unicode.Is(unicode.Hangul, r)
	case LangJapanese:
		return unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han)
	case LangChinese:
		return unicode.Is(unicode.Han, r)
	case LangSpanish:
		return strings.ContainsRune("áéíóúñü", r)
	}
	return false
}

// resolveSessionPath joins id onto the sessions directory and confirms the
// absolute result is still a direct child of it. This holds even if the
// id pattern check were bypassed.
func resolveSessionPath(projectRoot, id string) (string, error) {
	dir, err := filepath.Abs(SessionsPath(projectRoot))
	if err != nil {
		return "", fmt.Errorf("resolving sessions directory: %w", err)
	}
	path, err := filepath.Abs(filepath.Join(dir, id+fileExt))
	if err != nil {
		return "", fmt.Errorf("resolving session path: %w", err)
	}
	if filepath.Dir(path) != dir {
		return "", fmt.Errorf("%w: path escapes sessions directory", ErrInvalidSessionID)
	}
	return path, nil
}
