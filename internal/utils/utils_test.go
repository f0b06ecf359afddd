package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatWithCommas(t *testing.T) {
	testCases := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		123456:   "123,456",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for n, want := range testCases {
		assert.Equal(t, want, FormatWithCommas(n))
	}
}

func TestPatternInput(t *testing.T) {
	assert.Equal(t, "c_t", NormalizePatternInput("C?T\n"))
	assert.Equal(t, "c__t", NormalizePatternInput("c. t"))
	assert.Equal(t, "ca_", PadPattern("ca", 3))
	assert.Equal(t, "cats", PadPattern("cats", 3))

	assert.True(t, IsValidPatternInput("c_t"))
	assert.False(t, IsValidPatternInput(""))
	assert.False(t, IsValidPatternInput("c3t"))
	assert.False(t, IsValidPatternInput("cat!"))
}

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "file.bin")

	require.NoError(t, AtomicWriteFile(path, []byte("first"), 0644))
	require.NoError(t, AtomicWriteFile(path, []byte("second"), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are renamed away")
}

func TestTOMLRecovery(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nmax_limit = 12\nname = \"x\"\nflag = true\n"), 0644))

	data, err := ParseTOMLWithRecovery(path)
	require.NoError(t, err)
	section, ok := ExtractSection(data, "server")
	require.True(t, ok)

	v, ok := ExtractInt64(section, "max_limit")
	assert.True(t, ok)
	assert.Equal(t, 12, v)
	s, ok := ExtractString(section, "name")
	assert.True(t, ok)
	assert.Equal(t, "x", s)
	b, ok := ExtractBool(section, "flag")
	assert.True(t, ok)
	assert.True(t, b)
	_, ok = ExtractInt64(section, "name")
	assert.False(t, ok)
}
