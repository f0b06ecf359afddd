package dictionary

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat represents the on-disk formats WordMask understands.
type FileFormat int

const (
	FormatUnknown  FileFormat = iota
	FormatSnapshot            // Serialized index snapshot
	FormatText                // Plain text word list
)

// FormatInfo contains metadata about a file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatSnapshot: {
		Format:      FormatSnapshot,
		Description: "WordMask Index Snapshot",
		Extensions:  []string{SnapshotExt},
		MinSize:     int64(headerSize),
	},
	FormatText: {
		Format:      FormatText,
		Description: "Plain Text Word List",
		Extensions:  []string{".txt", ".lst", ".dic", ".words"},
		MinSize:     0,
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "unknown"
}

// ValidateFileFormat checks if a file matches the expected format
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}

	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		return fmt.Errorf("unknown format: %v", expectedFormat)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	switch expectedFormat {
	case FormatSnapshot:
		return validateSnapshotHeader(filename)
	case FormatText:
		ext := strings.ToLower(filepath.Ext(filename))
		for _, valid := range formatInfo.Extensions {
			if ext == valid {
				return nil
			}
		}
		return fmt.Errorf("file %s has invalid extension %s for format %s (expected: %v)",
			filename, ext, formatInfo.Description, formatInfo.Extensions)
	}

	return nil
}

// validateSnapshotHeader checks the magic bytes and version of a snapshot file.
func validateSnapshotHeader(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(file, header); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", filename, err)
	}
	if _, err := parseHeader(header); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	log.Debugf("Snapshot file %s validated", filename)
	return nil
}

// DetectFileFormat sniffs the snapshot magic first and falls back to the
// extension for word lists.
func DetectFileFormat(filename string) (FileFormat, error) {
	file, err := os.Open(filename)
	if err != nil {
		return FormatUnknown, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	head := make([]byte, len(snapshotMagic))
	if n, _ := io.ReadFull(file, head); n == len(head) && bytes.Equal(head, snapshotMagic[:]) {
		return FormatSnapshot, nil
	}

	if err := ValidateFileFormat(filename, FormatText); err == nil {
		return FormatText, nil
	}

	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}
