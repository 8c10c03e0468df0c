// Package sanitize removes markup from free-text user input before it is
// persisted.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	scriptPattern = regexp.MustCompile(`(?is)<script\b[^>]*>(.*?)</script>`)
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
)

// Purify strips <script> blocks (case-insensitive, non-greedy), then all
// remaining HTML tags, then surrounding whitespace. Empty input yields an
// empty string.
func Purify(text string) string {
	if text == "" {
		return ""
	}

	text = scriptPattern.ReplaceAllString(text, "")
	text = tagPattern.ReplaceAllString(text, "")
	// Stray delimiters from unclosed tags must not survive either
	text = strings.NewReplacer("<", "", ">", "").Replace(text)

	return strings.TrimSpace(text)
}
