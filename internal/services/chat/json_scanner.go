// File: internal/services/chat/json_scanner.go
package chat

import "strings"

// balancedSpan returns the substring of s that starts at the first open byte
// and ends at its matching close byte. Brackets inside JSON strings are
// skipped, as are escaped quotes. ok is false when there is no opener or it
// is never closed.
//
// Iterating bytes is safe for these ASCII delimiters because UTF-8 never
// reuses ASCII bytes inside multi-byte sequences.
func balancedSpan(s string, open, close byte) (span string, ok bool) {
	start := strings.IndexByte(s, open)
	if start == -1 {
		return "", false
	}

	var depth int
	var inString, escape bool

	for i := start; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}

		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
