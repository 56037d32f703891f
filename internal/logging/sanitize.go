package logging

import "strings"

// Clip collapses whitespace runs (including newlines) to single spaces and
// shortens s to at most max runes, marking the cut with "...".
// Prompts are multi-line and long; log lines are not.
func Clip(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
