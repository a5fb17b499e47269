package common

import "strings"

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// StripCodeFences removes a leading ```json (or bare ```) fence and a trailing ``` fence.
func StripCodeFences(s string) string {
	out := strings.TrimSpace(s)
	if len(out) >= 7 && strings.EqualFold(out[:7], "```json") {
		out = strings.TrimLeft(out[7:], " \t\r\n")
	} else if strings.HasPrefix(out, "```") {
		out = strings.TrimLeft(out[3:], " \t\r\n")
	}
	out = strings.TrimRight(out, " \t\r\n")
	out = strings.TrimSuffix(out, "```")
	return strings.TrimSpace(out)
}
