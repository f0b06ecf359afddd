package index

import (
	"fmt"
	"slices"
)

// Index maps word length to its Group. It is read-only after construction.
type Index struct {
	groups map[int]*Group
	words  int
}

// Build indexes words in one pass. Words are normalized with NormalizeWord and
// empty entries are dropped; no other validation happens. An empty input
// yields a valid, empty index.
func Build(words []string) *Index {
	b := NewBuilder()
	b.AddAll(words)
	return b.Finish()
}

// Assemble builds an index from already constructed groups, as produced by a
// snapshot decoder. Two groups with the same length are rejected.
func Assemble(groups []*Group) (*Index, error) {
	x := &Index{groups: make(map[int]*Group, len(groups))}
	for _, g := range groups {
		if g == nil {
			return nil, fmt.Errorf("%w: nil group", ErrCorruptIndex)
		}
		if _, dup := x.groups[g.length]; dup {
			return nil, fmt.Errorf("%w: duplicate group for length %d", ErrCorruptIndex, g.length)
		}
		x.groups[g.length] = g
		x.words += len(g.words)
	}
	return x, nil
}

// Group returns the group for length, if one exists.
func (x *Index) Group(length int) (*Group, bool) {
	g, ok := x.groups[length]
	return g, ok
}

// Lengths returns every indexed word length in ascending order.
func (x *Index) Lengths() []int {
	lengths := make([]int, 0, len(x.groups))
	for l := range x.groups {
		lengths = append(lengths, l)
	}
	slices.Sort(lengths)
	return lengths
}

// WordCount returns the total number of indexed words across all lengths.
func (x *Index) WordCount() int { return x.words }

// Stats returns summary counters about the index.
func (x *Index) Stats() map[string]int {
	maxLength := 0
	for l := range x.groups {
		maxLength = max(maxLength, l)
	}
	return map[string]int{
		"lengths":   len(x.groups),
		"words":     x.words,
		"maxLength": maxLength,
	}
}
