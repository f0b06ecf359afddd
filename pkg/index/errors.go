package index

import "errors"

var (
	// ErrPatternLengthMismatch is returned when a pattern's cell count differs
	// from the requested word length.
	ErrPatternLengthMismatch = errors.New("pattern length does not match word length")

	// ErrCorruptIndex is returned when persisted or assembled index data is
	// malformed, truncated or inconsistent with its word lists.
	ErrCorruptIndex = errors.New("corrupt index")
)
