package utils

import (
	"strings"
	"unicode/utf8"
)

// PatternWildcards are the characters accepted as "unknown letter" in typed
// patterns. They are all rewritten to '_'.
const PatternWildcards = "_.?* "

// NormalizePatternInput lowercases a typed pattern and rewrites every accepted
// wildcard character to '_'. Surrounding newlines are dropped but interior
// spaces count as wildcards.
func NormalizePatternInput(s string) string {
	s = strings.Trim(s, "\r\n")
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if strings.ContainsRune(PatternWildcards, r) {
			sb.WriteByte('_')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// IsValidPatternInput reports whether s only holds letters a-z and '_'.
// Front-ends reject anything else before it reaches the index.
func IsValidPatternInput(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if r != '_' && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// PadPattern extends s with '_' up to length runes. Longer input is returned
// unchanged so the caller can report the mismatch.
func PadPattern(s string, length int) string {
	n := utf8.RuneCountInString(s)
	if n >= length {
		return s
	}
	return s + strings.Repeat("_", length-n)
}
