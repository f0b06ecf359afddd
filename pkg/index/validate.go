package index

import (
	"fmt"
	"unicode/utf8"
)

// Validate checks that every bitmap of x is exactly what its group's word list
// implies. Errors wrap ErrCorruptIndex.
func Validate(x *Index) error {
	for _, length := range x.Lengths() {
		g := x.groups[length]
		if err := validateGroup(g); err != nil {
			return err
		}
	}
	return nil
}

func validateGroup(g *Group) error {
	for id, w := range g.words {
		if utf8.RuneCountInString(w) != g.length {
			return fmt.Errorf("%w: word %d (%q) in length-%d group", ErrCorruptIndex, id, w, g.length)
		}
	}
	want := newGroup(g.length, g.words)
	for l := range g.bitmaps {
		if len(g.bitmaps[l]) != g.length {
			return fmt.Errorf("%w: letter %c has %d positions in length-%d group",
				ErrCorruptIndex, 'a'+l, len(g.bitmaps[l]), g.length)
		}
		for p, b := range g.bitmaps[l] {
			if b == nil || !b.Equal(want.bitmaps[l][p]) {
				return fmt.Errorf("%w: bitmap %c@%d disagrees with words of length %d",
					ErrCorruptIndex, 'a'+l, p, g.length)
			}
		}
	}
	return nil
}
