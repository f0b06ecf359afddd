// Package match serves pattern queries against the currently published index,
// adding result paging and a cache of recent results.
package match

// IMatcher defines the interface for pattern matching engines
type IMatcher interface {
	// Match returns every word of length matching pattern, in dictionary order.
	Match(length int, pattern string) ([]string, error)

	// MatchPage returns one page of matches along with the total count.
	MatchPage(length int, pattern string, offset, limit int) (Result, error)

	// HasLength reports whether the index holds any words of length.
	HasLength(length int) bool

	// Stats returns statistics about the index and the cache.
	Stats() map[string]int
}
