package index

import (
	"fmt"
	"unicode/utf8"

	"github.com/bits-and-blooms/bitset"
)

const (
	// Alphabet is the number of tracked letters, 'a' through 'z'.
	Alphabet = 26
	// Wildcard marks a pattern cell with no constraint.
	Wildcard = '_'
)

// Group holds every word of one length together with its positional bitmaps.
// bitmaps[l][p] has bit i set iff the rune at position p of words[i] is 'a'+l.
type Group struct {
	length  int
	words   []string
	bitmaps [Alphabet][]*bitset.BitSet
}

// letterIndex maps a tracked letter to its bitmap slot.
func letterIndex(r rune) (int, bool) {
	if r < 'a' || r > 'z' {
		return 0, false
	}
	return int(r - 'a'), true
}

func newGroup(length int, words []string) *Group {
	g := &Group{length: length, words: words}
	n := uint(len(words))
	for l := range g.bitmaps {
		g.bitmaps[l] = make([]*bitset.BitSet, length)
		for p := range length {
			g.bitmaps[l][p] = bitset.New(n)
		}
	}
	for id, w := range words {
		p := 0
		for _, r := range w {
			if l, ok := letterIndex(r); ok {
				g.bitmaps[l][p].Set(uint(id))
			}
			p++
		}
	}
	return g
}

// NewGroupFromBitmaps assembles a group from previously persisted parts.
// bitmaps is indexed [letter][position]. The shape is checked: every word must
// have the group's length and every bitmap must be exactly len(words) bits wide.
// Bitmap contents are taken as given; use Validate to check them against the words.
func NewGroupFromBitmaps(length int, words []string, bitmaps [Alphabet][]*bitset.BitSet) (*Group, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: invalid group length %d", ErrCorruptIndex, length)
	}
	for id, w := range words {
		if utf8.RuneCountInString(w) != length {
			return nil, fmt.Errorf("%w: word %d (%q) in length-%d group", ErrCorruptIndex, id, w, length)
		}
	}
	n := uint(len(words))
	for l := range bitmaps {
		if len(bitmaps[l]) != length {
			return nil, fmt.Errorf("%w: letter %c has %d positions, want %d",
				ErrCorruptIndex, 'a'+l, len(bitmaps[l]), length)
		}
		for p, b := range bitmaps[l] {
			if b == nil || b.Len() != n {
				return nil, fmt.Errorf("%w: bitmap %c@%d has wrong width for %d words",
					ErrCorruptIndex, 'a'+l, p, n)
			}
		}
	}
	return &Group{length: length, words: words, bitmaps: bitmaps}, nil
}

// Length returns the word length shared by the group.
func (g *Group) Length() int { return g.length }

// Len returns the number of words (ids) in the group.
func (g *Group) Len() int { return len(g.words) }

// Word returns the word with the given id.
func (g *Group) Word(id int) string { return g.words[id] }

// Words returns a copy of the group's words in id order.
func (g *Group) Words() []string {
	out := make([]string, len(g.words))
	copy(out, g.words)
	return out
}

// Bitmap returns a copy of the bitmap for letter at position pos.
// ok is false when letter is not tracked or pos is out of range.
func (g *Group) Bitmap(letter rune, pos int) (*bitset.BitSet, bool) {
	l, ok := letterIndex(letter)
	if !ok || pos < 0 || pos >= g.length {
		return nil, false
	}
	return g.bitmaps[l][pos].Clone(), true
}

// EachBitmap calls fn for every (letter, position) bitmap, letters in
// alphabetical order and positions ascending. fn must not modify b.
func (g *Group) EachBitmap(fn func(letter rune, pos int, b *bitset.BitSet) error) error {
	for l := range g.bitmaps {
		for p, b := range g.bitmaps[l] {
			if err := fn(rune('a'+l), p, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// fullMask returns a fresh bitset with every id of the group set.
func (g *Group) fullMask() *bitset.BitSet {
	n := uint(len(g.words))
	return bitset.New(n).FlipRange(0, n)
}
