package util

import "strings"

// TruncateForLog shortens s to limit runes, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// JoinLimited joins up to limit items with ", " and reports how many were left out.
func JoinLimited(items []string, limit int) (string, int) {
	if limit <= 0 || len(items) <= limit {
		return strings.Join(items, ", "), 0
	}
	return strings.Join(items[:limit], ", "), len(items) - limit
}
