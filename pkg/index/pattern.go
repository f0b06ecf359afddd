package index

import "strings"

// Pattern is a query: one cell per character position, each a letter or a
// Wildcard. Cells holding anything other than 'a'..'z' add no constraint.
type Pattern []rune

// ParsePattern converts s into a Pattern, one cell per rune.
func ParsePattern(s string) Pattern {
	return Pattern([]rune(s))
}

// WildcardPattern returns a pattern of length wildcards.
func WildcardPattern(length int) Pattern {
	p := make(Pattern, length)
	for i := range p {
		p[i] = Wildcard
	}
	return p
}

// Len returns the number of cells.
func (p Pattern) Len() int { return len(p) }

// String renders the pattern as typed.
func (p Pattern) String() string { return string(p) }

// Constraints returns how many cells hold a tracked letter.
func (p Pattern) Constraints() int {
	n := 0
	for _, r := range p {
		if _, ok := letterIndex(r); ok {
			n++
		}
	}
	return n
}

// Canonical renders the pattern with every unconstrained cell replaced by
// Wildcard. Two patterns with the same canonical form always match the same
// words.
func (p Pattern) Canonical() string {
	var sb strings.Builder
	sb.Grow(len(p))
	for _, r := range p {
		if _, ok := letterIndex(r); ok {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(Wildcard)
		}
	}
	return sb.String()
}

// With returns a copy of p with cell pos set to r.
func (p Pattern) With(pos int, r rune) Pattern {
	q := make(Pattern, len(p))
	copy(q, p)
	q[pos] = r
	return q
}
