package search

import (
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/padiauj/glint/internal/types"
)

// ParallelThreshold is the record-count cutoff at or above which Search and
// SearchLimited fan out across worker goroutines instead of scanning
// sequentially. Below this, the overhead of goroutine coordination
// outweighs the gain.
const ParallelThreshold = 10_000

// Score computes the deterministic relevance score for rec:
// saturating(1000 - len(name)) + (is_dir ? 10 : 0). Higher is better.
func Score(rec *types.FileRecord) int {
	base := 1000 - len(rec.Name)
	if base < 0 {
		base = 0
	}
	if rec.IsDir {
		base += 10
	}
	return base
}

func matches(rec *types.FileRecord, q Query) bool {
	if rec.IsTombstone() {
		return false
	}
	pathLower := ""
	if q.SearchInPath {
		pathLower = strings.ToLower(rec.Path)
	}
	if !q.Matcher.Match(rec.NameLower, pathLower, q.SearchInPath) {
		return false
	}
	for _, f := range q.Filters {
		if !f.Admit(rec) {
			return false
		}
	}
	return true
}

// Search evaluates q against records, returning every hit. Insertion order
// is preserved for equal scores.
func Search(records []types.FileRecord, q Query) []Hit {
	return searchUpTo(records, q, -1)
}

// SearchLimited evaluates q against records, stopping once limit hits have
// been collected. limit <= 0 means unlimited.
func SearchLimited(records []types.FileRecord, q Query, limit int) []Hit {
	return searchUpTo(records, q, limit)
}

func searchUpTo(records []types.FileRecord, q Query, limit int) []Hit {
	if len(records) >= ParallelThreshold {
		return parallelSearch(records, q, limit)
	}
	return sequentialSearch(records, q, limit)
}

func sequentialSearch(records []types.FileRecord, q Query, limit int) []Hit {
	var hits []Hit
	for i := range records {
		rec := &records[i]
		if !matches(rec, q) {
			continue
		}
		hits = append(hits, Hit{Record: *rec, Score: Score(rec)})
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits
}

func parallelSearch(records []types.FileRecord, q Query, limit int) []Hit {
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if workers > len(records) {
		workers = 1
	}
	chunk := (len(records) + workers - 1) / workers

	partials := make([][]Hit, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= len(records) {
			continue
		}
		if end > len(records) {
			end = len(records)
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			var local []Hit
			for i := start; i < end; i++ {
				rec := &records[i]
				if !matches(rec, q) {
					continue
				}
				local = append(local, Hit{Record: *rec, Score: Score(rec)})
			}
			partials[w] = local
		}(w, start, end)
	}
	wg.Wait()

	var all []Hit
	for _, p := range partials {
		all = append(all, p...)
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// SortByScore sorts hits by descending score, stable so equal scores keep
// their original relative order (insertion order).
func SortByScore(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
}
