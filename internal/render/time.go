package render

import (
	"time"

	"github.com/dustin/go-humanize"
)

// TimeAgo formats t relative to now, e.g. "3 hours ago". The zero time
// renders as an empty string.
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// Snippet returns the first line of text, cut to at most n runes.
func Snippet(text string, n int) string {
	for i, r := range text {
		if r == '\n' {
			text = text[:i]
			break
		}
	}
	runes := []rune(text)
	if n > 0 && len(runes) > n {
		return string(runes[:n-1]) + "…"
	}
	return text
}
