// File: internal/services/chat/text.go
package chat

import (
	"strings"
	"unicode/utf8"
)

// truncateText truncates a UTF-8 string to maxLen runes without splitting a character.
func truncateText(input string, maxLen int) string {
	if input == "" || maxLen <= 0 {
		return ""
	}

	if utf8.RuneCountInString(input) <= maxLen {
		return input
	}

	var b strings.Builder
	count := 0
	for _, r := range input {
		if count >= maxLen {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}

// cleanWhitespace collapses runs of whitespace, including newlines, to single spaces.
func cleanWhitespace(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
