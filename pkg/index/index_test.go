package index

import (
	"context"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleWords = []string{"cat", "car", "can", "dog", "dot"}

func TestQueryScenarios(t *testing.T) {
	idx := Build(sampleWords)

	testCases := []struct {
		length   int
		pattern  string
		expected []string
		desc     string
	}{
		{3, "___", []string{"cat", "car", "can", "dog", "dot"}, "all wildcards"},
		{3, "ca_", []string{"cat", "car", "can"}, "fixed prefix"},
		{3, "c_t", []string{"cat"}, "fixed ends"},
		{3, "d__", []string{"dog", "dot"}, "first letter only"},
		{3, "xyz", []string{}, "absent letters"},
		{4, "____", []string{}, "unknown length"},
		{3, "__t", []string{"cat", "dot"}, "last letter only"},
		{3, "c9_", []string{"cat", "car", "can"}, "digit is unconstrained"},
		{3, "C__", []string{"cat", "car", "can", "dog", "dot"}, "uppercase is unconstrained"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := idx.Query(tc.length, ParsePattern(tc.pattern))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestQueryPatternLengthMismatch(t *testing.T) {
	idx := Build(sampleWords)

	_, err := idx.Query(3, ParsePattern("ca"))
	require.ErrorIs(t, err, ErrPatternLengthMismatch)

	// checked before the length lookup
	_, err = idx.Query(7, ParsePattern("ca"))
	require.ErrorIs(t, err, ErrPatternLengthMismatch)

	_, err = idx.Count(3, ParsePattern("cats"))
	require.ErrorIs(t, err, ErrPatternLengthMismatch)
}

func TestBuildNormalizesAndGroups(t *testing.T) {
	idx := Build([]string{"  Apple\n", "", "   ", "PEAR", "fig", "kiwi", "Fig"})

	assert.Equal(t, []int{3, 4, 5}, idx.Lengths())
	assert.Equal(t, 5, idx.WordCount())

	g, ok := idx.Group(4)
	require.True(t, ok)
	assert.Equal(t, []string{"pear", "kiwi"}, g.Words())

	// duplicates stay independently addressable
	g3, ok := idx.Group(3)
	require.True(t, ok)
	assert.Equal(t, []string{"fig", "fig"}, g3.Words())
	got, err := idx.Query(3, ParsePattern("f_g"))
	require.NoError(t, err)
	assert.Equal(t, []string{"fig", "fig"}, got)
}

func TestBuildEmpty(t *testing.T) {
	idx := Build(nil)
	assert.Empty(t, idx.Lengths())
	assert.Equal(t, 0, idx.WordCount())
	require.NoError(t, Validate(idx))

	got, err := idx.Query(3, ParsePattern("___"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNonAlphabeticWords(t *testing.T) {
	idx := Build([]string{"c-t", "cat", "ça"})

	got, err := idx.Query(3, ParsePattern("c_t"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c-t", "cat"}, got)

	got, err = idx.Query(3, ParsePattern("cat"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cat"}, got, "a fixed letter at the dash position excludes the word")

	// rune length, not byte length
	g, ok := idx.Group(2)
	require.True(t, ok)
	assert.Equal(t, []string{"ça"}, g.Words())
	got, err = idx.Query(2, ParsePattern("_a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ça"}, got)
}

func TestPartitionInvariant(t *testing.T) {
	words := []string{"alpha", "bravo", "delta", "gamma", "omega", "sigma", "tango", "zebra", "alpha"}
	idx := Build(words)

	for _, length := range idx.Lengths() {
		g, _ := idx.Group(length)
		full := bitset.New(uint(g.Len())).FlipRange(0, uint(g.Len()))
		for pos := range length {
			union := bitset.New(uint(g.Len()))
			for a := 'a'; a <= 'z'; a++ {
				ba, ok := g.Bitmap(a, pos)
				require.True(t, ok)
				union.InPlaceUnion(ba)
				for b := a + 1; b <= 'z'; b++ {
					bb, _ := g.Bitmap(b, pos)
					assert.Zero(t, ba.IntersectionCardinality(bb), "%c and %c overlap at %d", a, b, pos)
				}
			}
			assert.True(t, union.Equal(full), "union at position %d is not the full mask", pos)
		}
	}
}

func TestFullWildcardIdentity(t *testing.T) {
	words := []string{"stone", "brick", "water", "flame", "stone", "earth"}
	idx := Build(words)

	got, err := idx.Query(5, WildcardPattern(5))
	require.NoError(t, err)
	assert.Equal(t, words, got)
}

func TestSingleLetterMonotonicity(t *testing.T) {
	words := []string{"stone", "store", "stare", "share", "shore", "spore", "snore", "score"}
	idx := Build(words)

	base := ParsePattern("s___e")
	baseResult, err := idx.Query(5, base)
	require.NoError(t, err)

	for pos := range base.Len() {
		if base[pos] != Wildcard {
			continue
		}
		for r := 'a'; r <= 'z'; r++ {
			narrowed, err := idx.Query(5, base.With(pos, r))
			require.NoError(t, err)
			assert.Subset(t, baseResult, narrowed)
			assert.LessOrEqual(t, len(narrowed), len(baseResult))
		}
	}
}

func TestResultOrderFollowsIDs(t *testing.T) {
	words := []string{"zz", "az", "mz", "bz", "za"}
	idx := Build(words)

	got, err := idx.Query(2, ParsePattern("_z"))
	require.NoError(t, err)
	assert.Equal(t, []string{"zz", "az", "mz", "bz"}, got)
}

func TestMatchShortCircuit(t *testing.T) {
	idx := Build(sampleWords)
	g, _ := idx.Group(3)

	mask, err := g.Match(ParsePattern("qat"))
	require.NoError(t, err)
	assert.True(t, mask.None())

	testCases := []struct {
		pattern string
		applied int
	}{
		{"qat", 1}, // no word starts with q: a and t are never intersected
		{"cq_", 2},
		{"c_t", 2},
		{"ca_", 2},
		{"___", 0},
		{"-at", 2},
	}
	for _, tc := range testCases {
		mask, applied := g.intersect(ParsePattern(tc.pattern))
		assert.Equal(t, tc.applied, applied, tc.pattern)
		if tc.applied < ParsePattern(tc.pattern).Constraints() {
			assert.True(t, mask.None(), tc.pattern)
		}
	}

	n, err := idx.Count(3, ParsePattern("d__"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestQueryBatch(t *testing.T) {
	idx := Build(sampleWords)
	reqs := []Request{
		{Length: 3, Pattern: ParsePattern("ca_")},
		{Length: 3, Pattern: ParsePattern("d__")},
		{Length: 3, Pattern: ParsePattern("d_")},
		{Length: 9, Pattern: WildcardPattern(9)},
	}

	resps, err := idx.QueryBatch(context.Background(), reqs, 2)
	require.NoError(t, err)
	require.Len(t, resps, len(reqs))

	assert.Equal(t, []string{"cat", "car", "can"}, resps[0].Words)
	assert.Equal(t, []string{"dog", "dot"}, resps[1].Words)
	assert.ErrorIs(t, resps[2].Err, ErrPatternLengthMismatch)
	assert.Empty(t, resps[3].Words)
}

func TestQueryBatchCancelled(t *testing.T) {
	idx := Build(sampleWords)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.QueryBatch(ctx, []Request{{Length: 3, Pattern: WildcardPattern(3)}}, 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestValidateDetectsTamperedBitmap(t *testing.T) {
	idx := Build(sampleWords)
	require.NoError(t, Validate(idx))

	g, _ := idx.Group(3)
	var bitmaps [Alphabet][]*bitset.BitSet
	require.NoError(t, g.EachBitmap(func(letter rune, pos int, b *bitset.BitSet) error {
		bitmaps[letter-'a'] = append(bitmaps[letter-'a'], b.Clone())
		return nil
	}))
	bitmaps['c'-'a'][0].Clear(0)

	tampered, err := NewGroupFromBitmaps(3, g.Words(), bitmaps)
	require.NoError(t, err)
	x, err := Assemble([]*Group{tampered})
	require.NoError(t, err)
	assert.ErrorIs(t, Validate(x), ErrCorruptIndex)
}

func TestNewGroupFromBitmapsRejectsBadShape(t *testing.T) {
	var bitmaps [Alphabet][]*bitset.BitSet
	for l := range bitmaps {
		bitmaps[l] = []*bitset.BitSet{bitset.New(2), bitset.New(2)}
	}

	_, err := NewGroupFromBitmaps(2, []string{"ab", "abc"}, bitmaps)
	assert.ErrorIs(t, err, ErrCorruptIndex)

	_, err = NewGroupFromBitmaps(2, []string{"ab"}, bitmaps)
	assert.ErrorIs(t, err, ErrCorruptIndex, "bitmap width must equal the word count")

	_, err = NewGroupFromBitmaps(0, nil, bitmaps)
	assert.ErrorIs(t, err, ErrCorruptIndex)

	g, err := NewGroupFromBitmaps(2, []string{"ab", "cd"}, bitmaps)
	require.NoError(t, err)
	_, err = Assemble([]*Group{g, g})
	assert.ErrorIs(t, err, ErrCorruptIndex)
}

func TestBuilderReuse(t *testing.T) {
	b := NewBuilder()
	assert.True(t, b.Add("one"))
	assert.False(t, b.Add("  "))
	assert.Equal(t, 1, b.Added())
	assert.Equal(t, 1, b.Dropped())

	first := b.Finish()
	assert.Equal(t, 1, first.WordCount())
	assert.Equal(t, 0, b.Added())

	b.AddAll([]string{"two", "three"})
	second := b.Finish()
	assert.Equal(t, 2, second.WordCount())
	assert.Equal(t, 1, first.WordCount(), "earlier index is untouched")
}

func TestPatternCanonical(t *testing.T) {
	assert.Equal(t, "c_t", ParsePattern("c?t").Canonical())
	assert.Equal(t, "___", ParsePattern("_9_").Canonical())
	assert.Equal(t, 2, ParsePattern("c_tX").Constraints())
}

func TestDecodeRange(t *testing.T) {
	idx := Build(sampleWords)
	g, _ := idx.Group(3)
	mask, err := g.Match(WildcardPattern(3))
	require.NoError(t, err)

	assert.Equal(t, []string{"cat", "car"}, g.DecodeRange(mask, 0, 2))
	assert.Equal(t, []string{"can", "dog"}, g.DecodeRange(mask, 2, 2))
	assert.Equal(t, []string{"dot"}, g.DecodeRange(mask, 4, 2))
	assert.Equal(t, []string{}, g.DecodeRange(mask, 9, 2))
	assert.Equal(t, g.Decode(mask), g.DecodeRange(mask, 0, 0))
}
