package search

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

type narrowEntry struct {
	query Query
	hits  []Hit
}

// NarrowingCache supports the view layer's incremental-narrowing
// optimization: when the user extends a query by typing more characters,
// the previous result set can be filtered immediately for a snappy UI
// response, while a full authoritative search runs in the background
// against the catalog. The catalog remains the source of truth; results
// served from this cache are provisional.
type NarrowingCache struct {
	cache *lru.Cache[string, narrowEntry]
}

// NewNarrowingCache creates a cache holding up to capacity prior result
// sets, keyed by raw query line.
func NewNarrowingCache(capacity int) *NarrowingCache {
	c, err := lru.New[string, narrowEntry](capacity)
	if err != nil {
		// Only returns an error for capacity <= 0; fall back to a
		// single-entry cache rather than propagating a constructor error
		// for what is purely a latency optimization.
		c, _ = lru.New[string, narrowEntry](1)
	}
	return &NarrowingCache{cache: c}
}

// Put remembers hits as the result set for query q.
func (n *NarrowingCache) Put(q Query, hits []Hit) {
	n.cache.Add(q.raw, narrowEntry{query: q, hits: hits})
}

// Narrow returns a provisional, locally-filtered result set for q if q is
// a strict extension of a cached previous query with the same filters, or
// false if no such cached set exists.
func (n *NarrowingCache) Narrow(q Query) ([]Hit, bool) {
	for _, key := range n.cache.Keys() {
		entry, ok := n.cache.Peek(key)
		if !ok {
			continue
		}
		if !q.IsExtensionOf(entry.query) {
			continue
		}
		var narrowed []Hit
		for _, h := range entry.hits {
			rec := h.Record
			if !matches(&rec, q) {
				continue
			}
			narrowed = append(narrowed, Hit{Record: rec, Score: Score(&rec)})
		}
		return narrowed, true
	}
	return nil, false
}
