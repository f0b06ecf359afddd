package dictionary

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/wordmask/pkg/index"
	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

var testWords = []string{
	"cat", "car", "can", "dog", "dot",
	"apple", "angle", "ample", "eagle",
	"a", "i", "c-t", "zebra", "cat",
}

func saveToBytes(t *testing.T, x *index.Index) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, x, DefaultSnapshotOptions()))
	return buf.Bytes()
}

// allPatterns enumerates every pattern over the letters used in words plus the
// wildcard, for lengths up to 3, and a handful of longer ones.
func allPatterns(length int) []index.Pattern {
	if length > 3 {
		return []index.Pattern{
			index.WildcardPattern(length),
			index.ParsePattern("a" + string(index.WildcardPattern(length-1))),
			index.ParsePattern(string(index.WildcardPattern(length-1)) + "e"),
		}
	}
	alphabet := []rune("acdginorttz_")
	patterns := []index.Pattern{{}}
	for range length {
		var next []index.Pattern
		for _, p := range patterns {
			for _, r := range alphabet {
				next = append(next, append(append(index.Pattern{}, p...), r))
			}
		}
		patterns = next
	}
	return patterns
}

func TestSnapshotRoundTrip(t *testing.T) {
	original := index.Build(testWords)
	loaded, err := Load(bytes.NewReader(saveToBytes(t, original)), true)
	require.NoError(t, err)

	require.Equal(t, original.Lengths(), loaded.Lengths())
	assert.Equal(t, original.WordCount(), loaded.WordCount())

	for _, length := range original.Lengths() {
		og, _ := original.Group(length)
		lg, ok := loaded.Group(length)
		require.True(t, ok)
		assert.Equal(t, og.Words(), lg.Words(), "word order for length %d", length)

		for r := 'a'; r <= 'z'; r++ {
			for pos := range length {
				ob, _ := og.Bitmap(r, pos)
				lb, _ := lg.Bitmap(r, pos)
				assert.True(t, ob.Equal(lb), "bitmap %c@%d of length %d", r, pos, length)
			}
		}

		for _, p := range allPatterns(length) {
			want, err := original.Query(length, p)
			require.NoError(t, err)
			got, err := loaded.Query(length, p)
			require.NoError(t, err)
			assert.Equal(t, want, got, "pattern %q", p.String())
		}
	}
}

func TestSnapshotRoundTripEmpty(t *testing.T) {
	loaded, err := Load(bytes.NewReader(saveToBytes(t, index.Build(nil))), true)
	require.NoError(t, err)
	assert.Empty(t, loaded.Lengths())
	assert.Equal(t, 0, loaded.WordCount())
}

func TestSnapshotCompressionLevels(t *testing.T) {
	x := index.Build(testWords)
	for _, name := range []string{"fastest", "default", "better", "best"} {
		level, err := ParseCompressionLevel(name)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, Save(&buf, x, SnapshotOptions{Level: level}))
		loaded, err := Load(&buf, true)
		require.NoError(t, err)
		assert.Equal(t, x.WordCount(), loaded.WordCount())
	}

	_, err := ParseCompressionLevel("turbo")
	assert.Error(t, err)

	// zero options fall back to the default level
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, x, SnapshotOptions{}))
}

func TestSnapshotCorruption(t *testing.T) {
	data := saveToBytes(t, index.Build(testWords))

	badMagic := bytes.Clone(data)
	badMagic[0] = 'X'

	badVersion := bytes.Clone(data)
	binary.LittleEndian.PutUint16(badVersion[4:], 99)

	flipped := bytes.Clone(data)
	flipped[len(flipped)-10] ^= 0xff

	trailing := append(bytes.Clone(data), "TRAILINGJUNK"...)

	// a checksummed payload that is far smaller than the size it declares
	small := []byte("tiny")
	oversized := append(bytes.Clone(data[:headerSize]), mustMarshal(t, &envelope{
		Codec:    codecZstd,
		Size:     maxSnapshotBody - 1,
		Checksum: xxhash.Sum64(small),
		Payload:  small,
	})...)

	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"header only", data[:headerSize]},
		{"short header", data[:3]},
		{"bad magic", badMagic},
		{"bad version", badVersion},
		{"truncated envelope", data[:headerSize+5]},
		{"truncated payload", data[:len(data)-7]},
		{"flipped payload byte", flipped},
		{"trailing bytes", trailing},
		{"declared size far beyond payload", oversized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			x, err := Load(bytes.NewReader(tc.data), false)
			require.ErrorIs(t, err, index.ErrCorruptIndex)
			assert.Nil(t, x)
		})
	}
}

func TestSnapshotInconsistentBody(t *testing.T) {
	x := index.Build([]string{"cat", "dog"})
	g, _ := x.Group(3)

	sg := snapshotGroup{Length: 3, Words: g.Words()}
	require.NoError(t, g.EachBitmap(func(letter rune, pos int, b *bitset.BitSet) error {
		c := b.Clone()
		if letter == 'c' && pos == 0 {
			c.Clear(0)
		}
		data, err := c.MarshalBinary()
		sg.Bitmaps = append(sg.Bitmaps, data)
		return err
	}))

	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, &snapshotBody{Groups: []snapshotGroup{sg}}, SnapshotOptions{Level: zstd.SpeedFastest}))
	data := buf.Bytes()

	_, err := Load(bytes.NewReader(data), true)
	require.ErrorIs(t, err, index.ErrCorruptIndex, "verification recomputes bitmaps from words")

	loaded, err := Load(bytes.NewReader(data), false)
	require.NoError(t, err, "shape is valid, only contents disagree")
	got, err := loaded.Query(3, index.ParsePattern("c__"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSnapshotBadShape(t *testing.T) {
	testCases := []struct {
		name  string
		group snapshotGroup
	}{
		{"zero length", snapshotGroup{Length: 0}},
		{"missing bitmaps", snapshotGroup{Length: 2, Words: []string{"ab"}, Bitmaps: make([][]byte, 3)}},
		{"garbage bitmaps", snapshotGroup{Length: 1, Words: []string{"a"}, Bitmaps: make([][]byte, index.Alphabet)}},
		{"hostile bitmap width", bitmapGroup(t, func(b []byte) []byte {
			binary.BigEndian.PutUint64(b[:8], 1<<62)
			return b[:8]
		})},
		{"bitmap width off by one", bitmapGroup(t, func(b []byte) []byte {
			binary.BigEndian.PutUint64(b[:8], 2)
			return b
		})},
		{"bitmap with extra words", bitmapGroup(t, func(b []byte) []byte {
			return append(b, make([]byte, 8)...)
		})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			body := &snapshotBody{Groups: []snapshotGroup{tc.group}}
			require.NoError(t, writeSnapshot(&buf, body, DefaultSnapshotOptions()))
			_, err := Load(&buf, false)
			assert.ErrorIs(t, err, index.ErrCorruptIndex)
		})
	}
}

// bitmapGroup returns a valid group for the single word "a" with the
// encoding of bitmap a@0 rewritten by edit.
func bitmapGroup(t *testing.T, edit func([]byte) []byte) snapshotGroup {
	t.Helper()
	g, ok := index.Build([]string{"a"}).Group(1)
	require.True(t, ok)

	sg := snapshotGroup{Length: 1, Words: g.Words()}
	require.NoError(t, g.EachBitmap(func(letter rune, pos int, b *bitset.BitSet) error {
		data, err := b.MarshalBinary()
		if letter == 'a' {
			data = edit(data)
		}
		sg.Bitmaps = append(sg.Bitmaps, data)
		return err
	}))
	return sg
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := msgpack.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestSnapshotFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "words"+SnapshotExt)

	x := index.Build(testWords)
	require.NoError(t, SaveFile(path, x, DefaultSnapshotOptions()))

	format, err := DetectFileFormat(path)
	require.NoError(t, err)
	assert.Equal(t, FormatSnapshot, format)
	require.NoError(t, ValidateFileFormat(path, FormatSnapshot))

	loaded, err := LoadFile(path, true)
	require.NoError(t, err)
	assert.Equal(t, x.Lengths(), loaded.Lengths())

	// overwrite in place
	require.NoError(t, SaveFile(path, index.Build([]string{"solo"}), DefaultSnapshotOptions()))
	loaded, err = LoadFile(path, true)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, loaded.Lengths())

	require.NoError(t, os.WriteFile(path, []byte("WMSK\x01\x00garbage"), 0644))
	_, err = LoadFile(path, false)
	assert.ErrorIs(t, err, index.ErrCorruptIndex)

	_, err = LoadFile(filepath.Join(dir, "missing.wmx"), false)
	require.Error(t, err)
	assert.NotErrorIs(t, err, index.ErrCorruptIndex)
}
