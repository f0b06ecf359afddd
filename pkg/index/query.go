package index

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Query returns the words of the given length matching p, in ascending id
// order. A length with no group yields an empty result and no error. A pattern
// whose cell count differs from length fails with ErrPatternLengthMismatch.
func (x *Index) Query(length int, p Pattern) ([]string, error) {
	mask, g, err := x.resolve(length, p)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return []string{}, nil
	}
	return g.Decode(mask), nil
}

// Count returns how many words of the given length match p without decoding
// them. It follows the same rules as Query.
func (x *Index) Count(length int, p Pattern) (int, error) {
	mask, g, err := x.resolve(length, p)
	if err != nil || g == nil {
		return 0, err
	}
	return int(mask.Count()), nil
}

func (x *Index) resolve(length int, p Pattern) (*bitset.BitSet, *Group, error) {
	if len(p) != length {
		return nil, nil, fmt.Errorf("%w: pattern %q has %d cells, want %d",
			ErrPatternLengthMismatch, p.String(), len(p), length)
	}
	g, ok := x.groups[length]
	if !ok {
		return nil, nil, nil
	}
	mask, err := g.Match(p)
	if err != nil {
		return nil, nil, err
	}
	return mask, g, nil
}

// Match returns the set of ids whose words match p. The returned bitset is
// owned by the caller.
//
// The mask starts with every id set and is intersected with the bitmap of
// each fixed letter. Once it is empty no further bitmaps are touched.
func (g *Group) Match(p Pattern) (*bitset.BitSet, error) {
	if len(p) != g.length {
		return nil, fmt.Errorf("%w: pattern %q has %d cells, want %d",
			ErrPatternLengthMismatch, p.String(), len(p), g.length)
	}
	mask, _ := g.intersect(p)
	return mask, nil
}

// intersect builds the mask for p and reports how many bitmaps it applied.
func (g *Group) intersect(p Pattern) (*bitset.BitSet, int) {
	mask := g.fullMask()
	applied := 0
	for pos, r := range p {
		l, ok := letterIndex(r)
		if !ok {
			continue
		}
		mask.InPlaceIntersection(g.bitmaps[l][pos])
		applied++
		if mask.None() {
			break
		}
	}
	return mask, applied
}

// Decode returns the words whose ids are set in mask, in ascending id order.
func (g *Group) Decode(mask *bitset.BitSet) []string {
	out := make([]string, 0, mask.Count())
	for i, ok := mask.NextSet(0); ok && int(i) < len(g.words); i, ok = mask.NextSet(i + 1) {
		out = append(out, g.words[i])
	}
	return out
}

// DecodeRange returns up to limit words from mask, skipping the first offset
// matches. A limit <= 0 means no limit.
func (g *Group) DecodeRange(mask *bitset.BitSet, offset, limit int) []string {
	var out []string
	if limit > 0 {
		out = make([]string, 0, limit)
	}
	skipped := 0
	for i, ok := mask.NextSet(0); ok && int(i) < len(g.words); i, ok = mask.NextSet(i + 1) {
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, g.words[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}
