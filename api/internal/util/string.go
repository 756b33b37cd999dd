package util

import "strings"

const Ellipsis = "..."

func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Truncate cuts s to at most max runes. A cut string ends with Ellipsis and
// is exactly max runes long.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= len(Ellipsis) {
		return string(r[:max])
	}
	return string(r[:max-len(Ellipsis)]) + Ellipsis
}
