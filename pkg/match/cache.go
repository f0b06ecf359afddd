package match

import (
	"math"
	"sync"

	"github.com/bastiangx/wordmask/pkg/index"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// ResultCache keeps full match lists for recent canonical patterns of a
// single index. Entries are only served for the index they were computed on.
type ResultCache struct {
	owner      *index.Index
	trie       *patricia.Trie
	accessTime map[string]int64
	clock      int64
	maxEntries int
	hits       int64
	misses     int64
	mu         sync.Mutex
}

// NewResultCache creates a cache holding at most maxEntries patterns.
func NewResultCache(maxEntries int) *ResultCache {
	return &ResultCache{
		trie:       patricia.NewTrie(),
		accessTime: make(map[string]int64, maxEntries),
		maxEntries: maxEntries,
	}
}

// Get returns the cached words for key computed against x.
func (rc *ResultCache) Get(x *index.Index, key string) ([]string, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.owner != x {
		rc.misses++
		return nil, false
	}
	item := rc.trie.Get(patricia.Prefix(key))
	if item == nil {
		rc.misses++
		return nil, false
	}
	rc.hits++
	rc.markAccessed(key)
	return item.([]string), true
}

// Put stores words for key computed against x. A different x than the
// current owner drops every existing entry first.
func (rc *ResultCache) Put(x *index.Index, key string, words []string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.maxEntries <= 0 {
		return
	}
	if rc.owner != x {
		rc.resetLocked(x)
	}
	if _, exists := rc.accessTime[key]; !exists && len(rc.accessTime) >= rc.maxEntries {
		rc.evictLRU()
	}
	rc.trie.Set(patricia.Prefix(key), words)
	rc.markAccessed(key)
}

// Reset drops every entry.
func (rc *ResultCache) Reset() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.resetLocked(nil)
}

func (rc *ResultCache) resetLocked(owner *index.Index) {
	rc.owner = owner
	rc.trie = patricia.NewTrie()
	rc.accessTime = make(map[string]int64, rc.maxEntries)
}

// Resize changes the capacity, evicting least recently used entries as needed.
func (rc *ResultCache) Resize(maxEntries int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.maxEntries = maxEntries
	for len(rc.accessTime) > max(maxEntries, 0) {
		rc.evictLRU()
	}
}

// Stats returns cache counters.
func (rc *ResultCache) Stats() map[string]int {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return map[string]int{
		"cacheEntries":    len(rc.accessTime),
		"cacheMaxEntries": rc.maxEntries,
		"cacheHits":       int(rc.hits),
		"cacheMisses":     int(rc.misses),
	}
}

func (rc *ResultCache) markAccessed(key string) {
	rc.clock++
	rc.accessTime[key] = rc.clock
}

func (rc *ResultCache) evictLRU() {
	var oldestKey string
	var oldestTime int64 = math.MaxInt64

	for key, t := range rc.accessTime {
		if t < oldestTime {
			oldestTime = t
			oldestKey = key
		}
	}

	if oldestKey != "" {
		rc.trie.Delete(patricia.Prefix(oldestKey))
		delete(rc.accessTime, oldestKey)
		log.Debugf("Evicted pattern %q from result cache", oldestKey)
	}
}
