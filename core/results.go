package core

import (
	"cmp"
	"slices"
	"strings"
)

// Results is an ordered collection of results. It keeps whatever order its
// producer gave it.
type Results []*Result

// URIs returns the URI of every result, in order.
func (rs Results) URIs() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.URI()
	}
	return out
}

// DisplayName names the collection: the single result's name, or the names
// joined with ", ".
func (rs Results) DisplayName() string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.DisplayName()
	}
	return strings.Join(names, ", ")
}

// Union appends the results of other that are not already present by
// identity. Duplicates by normalized identifier are kept; merging them is
// the mixer's job.
func (rs Results) Union(other Results) Results {
	out := slices.Clone(rs)
	seen := make(map[*Result]bool, len(rs))
	for _, r := range rs {
		seen[r] = true
	}
	for _, r := range other {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

func (rs Results) filter(keep func(*Result) bool) Results {
	out := make(Results, 0, len(rs))
	for _, r := range rs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// OfType returns the results whose type is exactly typ.
func (rs Results) OfType(typ string) Results {
	return rs.filter(func(r *Result) bool { return r.IsOfType(typ) })
}

// Conforming returns the results whose type is typ or a refinement of it.
func (rs Results) Conforming(typ string) Results {
	return rs.filter(func(r *Result) bool { return r.ConformsToType(typ) })
}

// ConformingToSet returns the results accepted by set.
func (rs Results) ConformingToSet(set TypeSet) Results {
	return rs.filter(func(r *Result) bool { return r.ConformsToTypeSet(set) })
}

// NotConformingToSet returns the results rejected by set.
func (rs Results) NotConformingToSet(set TypeSet) Results {
	return rs.filter(func(r *Result) bool { return !r.ConformsToTypeSet(set) })
}

// ByCategory groups results by the top-level segment of their type. Order
// within each group follows rs.
func (rs Results) ByCategory() map[string]Results {
	out := make(map[string]Results)
	for _, r := range rs {
		c := r.Category()
		out[c] = append(out[c], r)
	}
	return out
}

// Categories returns the distinct categories in order of first appearance.
func (rs Results) Categories() []string {
	var out []string
	for _, r := range rs {
		if c := r.Category(); !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// SortByRank sorts in place by descending effective rank. Equal ranks keep
// their relative order.
func (rs Results) SortByRank() {
	slices.SortStableFunc(rs, func(a, b *Result) int {
		return cmp.Compare(b.EffectiveRank(), a.EffectiveRank())
	})
}
