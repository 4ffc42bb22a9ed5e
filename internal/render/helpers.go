package render

import (
	"fmt"
	"hash/crc32"
	"strings"
)

// dotEscape escapes a string for use in DOT labels.
func dotEscape(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}

// dotID derives a node identifier from a class name. Plain identifiers pass
// through; generic instantiations carry punctuation DOT cannot digest, so
// those are stripped and the full name hashed in to keep distinct classes
// from colliding on the stripped form.
func dotID(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return -1
	}, name)
	if clean == name {
		return "c_" + name
	}
	return fmt.Sprintf("c_%s_%08x", clean, crc32.ChecksumIEEE([]byte(name)))
}

// truncLabel caps a label's length, marking the cut with an ellipsis.
func truncLabel(s string, maxLen int) string {
	const ellipsis = "..."
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= len(ellipsis) {
		return s[:maxLen]
	}
	return s[:maxLen-len(ellipsis)] + ellipsis
}
