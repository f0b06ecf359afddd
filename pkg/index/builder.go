package index

import (
	"strings"
	"unicode/utf8"
)

// NormalizeWord trims surrounding whitespace and lowercases w.
func NormalizeWord(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// Builder accumulates words and produces an Index.
// The zero value is not usable; use NewBuilder.
type Builder struct {
	byLength map[int][]string
	added    int
	dropped  int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{byLength: make(map[int][]string)}
}

// Add normalizes word and appends it to its length group.
// It reports false when the word was empty after normalization.
func (b *Builder) Add(word string) bool {
	w := NormalizeWord(word)
	if w == "" {
		b.dropped++
		return false
	}
	n := utf8.RuneCountInString(w)
	b.byLength[n] = append(b.byLength[n], w)
	b.added++
	return true
}

// AddAll adds every word in order.
func (b *Builder) AddAll(words []string) {
	for _, w := range words {
		b.Add(w)
	}
}

// Added returns how many words have been accepted so far.
func (b *Builder) Added() int { return b.added }

// Dropped returns how many empty entries have been discarded so far.
func (b *Builder) Dropped() int { return b.dropped }

// Finish computes the bitmaps for every length group and returns the
// completed index. The builder is reset and can be reused for a new index.
func (b *Builder) Finish() *Index {
	x := &Index{groups: make(map[int]*Group, len(b.byLength))}
	for length, words := range b.byLength {
		x.groups[length] = newGroup(length, words)
		x.words += len(words)
	}
	b.byLength = make(map[int][]string)
	b.added, b.dropped = 0, 0
	return x
}
