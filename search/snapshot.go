package search

import (
	"maps"
	"slices"

	"github.com/poiesic/omnisearch/core"
)

// Snapshot is one published mix. It is never modified after publication.
type Snapshot struct {
	// Ranked holds the deduplicated results within the query's ceiling.
	Ranked core.Results
	// ByCategory groups Ranked by top-level type.
	ByCategory map[string]core.Results
	// More counts results past the ceiling.
	More int
	// Total estimates how many results are available.
	Total int
	// Generation increases with every published mix; zero is the empty
	// snapshot a controller starts with.
	Generation uint64
	// Final is set on the snapshot mixed after every operation finished.
	Final bool
}

var emptySnapshot = &Snapshot{ByCategory: map[string]core.Results{}}

// RankedResults returns a copy of Ranked.
func (s *Snapshot) RankedResults() core.Results {
	return slices.Clone(s.Ranked)
}

// RankedResultsByCategory returns a copy of ByCategory.
func (s *Snapshot) RankedResultsByCategory() map[string]core.Results {
	out := make(map[string]core.Results, len(s.ByCategory))
	for k, v := range maps.All(s.ByCategory) {
		out[k] = slices.Clone(v)
	}
	return out
}
