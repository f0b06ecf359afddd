package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bastiangx/wordmask/pkg/dictionary"
	"github.com/bastiangx/wordmask/pkg/index"
	"github.com/bastiangx/wordmask/pkg/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, input string, pageSize int, noFilter bool) (*InputHandler, *bytes.Buffer) {
	t.Helper()
	loader := dictionary.NewRuntimeLoader(func() (*index.Index, error) {
		return index.Build([]string{"cat", "car", "can", "dog", "dot", "bird"}), nil
	})
	require.NoError(t, loader.Load())
	var out bytes.Buffer
	h := NewInputHandlerWithIO(match.NewMatcher(loader, 0), 1, 30, pageSize, noFilter, strings.NewReader(input), &out)
	return h, &out
}

func TestInteractiveSearch(t *testing.T) {
	h, out := newSession(t, "3\nca_\nq\n", 20, false)
	require.NoError(t, h.Start())

	text := out.String()
	assert.Contains(t, text, "Found 3 words of length 3")
	for _, w := range []string{"cat", "car", "can"} {
		assert.Contains(t, text, w)
	}
	assert.NotContains(t, text, "dog")
	assert.Equal(t, 1, h.requestCount)
}

func TestInteractiveLengthValidation(t *testing.T) {
	h, out := newSession(t, "abc\n0\n31\n7\n4\n\n", 20, false)
	require.NoError(t, h.Start())

	text := out.String()
	assert.Contains(t, text, "'abc' is not a number")
	assert.Contains(t, text, "Length must be between 1 and 30")
	assert.Contains(t, text, "No words of length 7")
	assert.Contains(t, text, "Found 1 words of length 4")
	assert.Contains(t, text, "bird")
}

func TestInteractivePatternValidation(t *testing.T) {
	h, out := newSession(t, "3\nc4t\ncatty\nD?G\n", 20, false)
	require.NoError(t, h.Start())

	text := out.String()
	assert.Contains(t, text, "Use letters a-z and '_' only")
	assert.Contains(t, text, "Pattern has 5 characters, expected 3")
	assert.Contains(t, text, "Found 1 words of length 3")
	assert.Contains(t, text, "dog")
	assert.NotContains(t, text, "dot")
}

func TestInteractiveNoFilterSkipsUnknownCells(t *testing.T) {
	h, out := newSession(t, "3\nd4t\n", 20, true)
	require.NoError(t, h.Start())
	assert.Contains(t, out.String(), "dot")
}

func TestInteractivePaging(t *testing.T) {
	h, out := newSession(t, "3\n\nn\nn\n", 2, false)
	require.NoError(t, h.Start())

	text := out.String()
	assert.Contains(t, text, "Found 5 words of length 3")
	assert.Contains(t, text, "... and 3 more")
	assert.Contains(t, text, "... and 1 more")
	for _, w := range []string{"cat", "car", "can", "dog", "dot"} {
		assert.Contains(t, text, w)
	}
	assert.Equal(t, 1, strings.Count(text, "Found 5 words"))
}

func TestInteractiveNoMatches(t *testing.T) {
	h, out := newSession(t, "3\nxyz\nquit\n", 20, false)
	require.NoError(t, h.Start())
	assert.Contains(t, out.String(), "No words of length 3 match 'xyz'")
}
