package text

import "unicode/utf8"

// Truncate cuts s to at most max runes (the suffix "..." included) without
// splitting a multi-byte character.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	const suffix = "..."
	if max <= len(suffix) {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-len(suffix)]) + suffix
}
