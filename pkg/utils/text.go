// Package utils provides shared utilities for text, vector math, and logging.
package utils

import "strings"

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// CollapseSpace trims s and collapses every run of whitespace into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
