package match

import (
	"errors"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bastiangx/wordmask/pkg/dictionary"
	"github.com/bastiangx/wordmask/pkg/index"
	"github.com/charmbracelet/log"
)

// ErrNoIndex is returned when no index has been published yet.
var ErrNoIndex = errors.New("no index loaded")

// Result is one page of matches.
type Result struct {
	Length  int
	Pattern string
	Words   []string
	Count   int
	Offset  int
	Elapsed time.Duration
}

// Remaining returns how many matches follow this page.
func (r Result) Remaining() int {
	return max(r.Count-r.Offset-len(r.Words), 0)
}

// Matcher answers pattern queries against a RuntimeLoader's current index.
type Matcher struct {
	loader       *dictionary.RuntimeLoader
	cache        *ResultCache
	requestCount atomic.Int64
}

// NewMatcher creates a matcher over loader. cacheEntries <= 0 disables the
// result cache.
func NewMatcher(loader *dictionary.RuntimeLoader, cacheEntries int) *Matcher {
	m := &Matcher{loader: loader}
	if cacheEntries > 0 {
		m.cache = NewResultCache(cacheEntries)
		loader.OnPublish(func(gen uint64) {
			m.cache.Reset()
			log.Debugf("Result cache cleared for index generation %d", gen)
		})
	}
	return m
}

func cacheKey(length int, p index.Pattern) string {
	return strconv.Itoa(length) + ":" + p.Canonical()
}

// Match returns every word of length matching pattern.
func (m *Matcher) Match(length int, pattern string) ([]string, error) {
	res, err := m.MatchPage(length, pattern, 0, 0)
	if err != nil {
		return nil, err
	}
	return res.Words, nil
}

// MatchPage returns up to limit matches starting at offset, plus the total
// match count. limit <= 0 returns everything from offset on.
func (m *Matcher) MatchPage(length int, pattern string, offset, limit int) (Result, error) {
	m.requestCount.Add(1)
	start := time.Now()
	res := Result{Length: length, Pattern: pattern, Offset: max(offset, 0)}

	x := m.loader.Current()
	if x == nil {
		return res, ErrNoIndex
	}

	p := index.ParsePattern(pattern)
	if m.cache == nil {
		if err := m.matchUncached(x, p, &res, limit); err != nil {
			return res, err
		}
		res.Elapsed = time.Since(start)
		return res, nil
	}

	key := cacheKey(length, p)
	words, hit := m.cache.Get(x, key)
	if !hit {
		var err error
		words, err = x.Query(length, p)
		if err != nil {
			return res, err
		}
		if x == m.loader.Current() {
			m.cache.Put(x, key, words)
		}
	}

	res.Count = len(words)
	res.Words = page(words, res.Offset, limit)
	res.Elapsed = time.Since(start)
	log.Debugf("Matched %q (length %d, %d fixed letters): %d words, cache hit=%v, took %v",
		pattern, length, p.Constraints(), res.Count, hit, res.Elapsed)
	return res, nil
}

// matchUncached counts on the mask and decodes only the requested page.
func (m *Matcher) matchUncached(x *index.Index, p index.Pattern, res *Result, limit int) error {
	if p.Len() != res.Length {
		_, err := x.Query(res.Length, p)
		return err
	}
	g, ok := x.Group(res.Length)
	if !ok {
		res.Words = []string{}
		return nil
	}
	mask, err := g.Match(p)
	if err != nil {
		return err
	}
	res.Count = int(mask.Count())
	res.Words = g.DecodeRange(mask, res.Offset, limit)
	return nil
}

func page(words []string, offset, limit int) []string {
	if offset >= len(words) {
		return []string{}
	}
	end := len(words)
	if limit > 0 {
		end = min(offset+limit, end)
	}
	return slices.Clone(words[offset:end])
}

// HasLength reports whether the current index holds words of length.
func (m *Matcher) HasLength(length int) bool {
	x := m.loader.Current()
	if x == nil {
		return false
	}
	_, ok := x.Group(length)
	return ok
}

// Lengths lists the length groups of the current index.
func (m *Matcher) Lengths() []dictionary.LengthInfo {
	return m.loader.GetLengthInfo()
}

// SetCacheSize resizes the result cache. It has no effect when the cache was
// disabled at construction.
func (m *Matcher) SetCacheSize(entries int) {
	if m.cache != nil {
		m.cache.Resize(entries)
	}
}

// Stats returns index and cache counters.
func (m *Matcher) Stats() map[string]int {
	stats := map[string]int{
		"requests":   int(m.requestCount.Load()),
		"generation": int(m.loader.Generation()),
	}
	if x := m.loader.Current(); x != nil {
		for k, v := range x.Stats() {
			stats[k] = v
		}
	}
	if m.cache != nil {
		for k, v := range m.cache.Stats() {
			stats[k] = v
		}
	}
	return stats
}
