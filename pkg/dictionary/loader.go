package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/bastiangx/wordmask/pkg/index"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

// maxLineBytes bounds a single word-list line.
const maxLineBytes = 1 << 20

// Loader builds an index from one or more plain-text word lists.
type Loader struct {
	sources []string
}

// LoaderStats describes the outcome of a Loader.Build call.
type LoaderStats struct {
	Files   int
	Words   int
	Dropped int
	Lengths int
	Elapsed time.Duration
}

// NewLoader creates a loader over sources. A source is either a file path or
// a doublestar glob such as "lists/**/*.txt".
func NewLoader(sources ...string) *Loader {
	return &Loader{sources: sources}
}

// Build reads every source in order and returns the finished index.
// Nothing is returned unless every file was read successfully.
func (l *Loader) Build() (*index.Index, LoaderStats, error) {
	start := time.Now()
	var stats LoaderStats

	files, err := ExpandSources(l.sources)
	if err != nil {
		return nil, stats, err
	}
	if len(files) == 0 {
		return nil, stats, fmt.Errorf("no word lists matched %v", l.sources)
	}

	b := index.NewBuilder()
	for _, file := range files {
		if err := readWordFile(file, b); err != nil {
			return nil, stats, err
		}
		log.Debugf("Read word list %s (%d words so far)", file, b.Added())
	}

	stats.Files = len(files)
	stats.Words = b.Added()
	stats.Dropped = b.Dropped()
	idx := b.Finish()
	stats.Lengths = len(idx.Lengths())
	stats.Elapsed = time.Since(start)

	log.Debugf("Built index: %d words in %d length groups from %d files in %v",
		stats.Words, stats.Lengths, stats.Files, stats.Elapsed)
	return idx, stats, nil
}

func readWordFile(path string, b *index.Builder) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open word list %s: %w", path, err)
	}
	defer file.Close()

	if _, err := ReadWords(file, b); err != nil {
		return fmt.Errorf("failed to read word list %s: %w", path, err)
	}
	return nil
}

// ReadWords adds one word per line of r to b and returns how many lines were
// accepted. Blank lines are skipped by the builder.
func ReadWords(r io.Reader, b *index.Builder) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	count := 0
	for scanner.Scan() {
		if b.Add(scanner.Text()) {
			count++
		}
	}
	return count, scanner.Err()
}

// ExpandSources resolves paths and glob patterns into a list of files.
// Order follows sources; files matched by a glob are sorted, and a file named
// twice is only read once.
func ExpandSources(sources []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, src := range sources {
		if !isGlob(src) {
			info, err := os.Stat(src)
			if err != nil {
				return nil, fmt.Errorf("word list %s: %w", src, err)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("word list %s is a directory", src)
			}
			add(src)
			continue
		}

		if !doublestar.ValidatePattern(src) {
			return nil, fmt.Errorf("invalid glob pattern %q", src)
		}
		matches, err := doublestar.FilepathGlob(src, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", src, err)
		}
		slices.Sort(matches)
		if len(matches) == 0 {
			log.Warnf("Glob %q matched no word lists", src)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return files, nil
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
