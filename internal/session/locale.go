package session

import (
	"fmt"
	"time"
)

// FormatTimestamp renders t the way each language's host locale prints a
// numeric date and time.
func FormatTimestamp(t time.Time, lang Language) string {
	switch lang {
	case LangKorean:
		meridiem := "오전"
		if t.Hour() >= 12 {
			meridiem = "오후"
		}
		hour := t.Hour() % 12
		if hour == 0 {
			hour = 12
		}
		return fmt.Sprintf("%d. %d. %d. %s %d:%02d:%02d",
			t.Year(), int(t.Month()), t.Day(), meridiem, hour, t.Minute(), t.Second())
	case LangJapanese, LangChinese:
		return t.Format("2006/1/2 15:04:05")
	case LangSpanish:
		return t.Format("2/1/2006, 15:04:05")
	default:
		return t.Format("1/2/2006, 3:04:05 PM")
	}
}
