// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "slices"

// UnboundedResults requests every result a query can produce.
const UnboundedResults = -1

// QueryFlags modify how a query is executed or presented.
type QueryFlags uint32

const (
	// FlagShowAlternates asks sources to include alternate matches.
	FlagShowAlternates QueryFlags = 1 << iota
)

// Query is an immutable user request.
type Query struct {
	raw               string
	words             []string
	pivots            Results
	parent            *Query
	maxDesiredResults int
	flags             QueryFlags
}

// QueryOption configures a Query at construction.
type QueryOption func(*Query)

// WithPivots scopes the query to one or more prior results.
func WithPivots(pivots ...*Result) QueryOption {
	return func(q *Query) {
		for _, p := range pivots {
			if p != nil {
				q.pivots = append(q.pivots, p)
			}
		}
	}
}

// WithParent records the query that produced this one.
func WithParent(parent *Query) QueryOption {
	return func(q *Query) {
		q.parent = parent
	}
}

// WithMaxDesiredResults caps the number of fully ranked results. Negative
// values mean unbounded.
func WithMaxDesiredResults(n int) QueryOption {
	return func(q *Query) {
		if n < 0 {
			n = UnboundedResults
		}
		q.maxDesiredResults = n
	}
}

// WithFlags sets the query flags.
func WithFlags(flags QueryFlags) QueryOption {
	return func(q *Query) {
		q.flags = flags
	}
}

// NewQuery tokenizes raw and applies opts.
func NewQuery(raw string, opts ...QueryOption) *Query {
	q := &Query{
		raw:               raw,
		words:             Tokenize(raw),
		maxDesiredResults: UnboundedResults,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Raw returns the text as typed.
func (q *Query) Raw() string { return q.raw }

// Words returns a copy of the normalized unique words.
func (q *Query) Words() []string { return slices.Clone(q.words) }

// HasWords reports whether the query has at least one normalized word.
func (q *Query) HasWords() bool { return len(q.words) > 0 }

// Pivots returns a copy of the pivot results.
func (q *Query) Pivots() Results { return slices.Clone(q.pivots) }

// Pivot returns the first pivot, or nil.
func (q *Query) Pivot() *Result {
	if len(q.pivots) == 0 {
		return nil
	}
	return q.pivots[0]
}

// HasPivot reports whether the query is scoped to at least one result.
func (q *Query) HasPivot() bool { return len(q.pivots) > 0 }

// Parent returns the query that produced this one, or nil.
func (q *Query) Parent() *Query { return q.parent }

// MaxDesiredResults returns the result ceiling, or UnboundedResults.
func (q *Query) MaxDesiredResults() int { return q.maxDesiredResults }

// Flags returns the query flags.
func (q *Query) Flags() QueryFlags { return q.flags }

// HasFlag reports whether every bit in flag is set.
func (q *Query) HasFlag(flag QueryFlags) bool { return q.flags&flag == flag }

// IsEmpty reports whether the query has neither words nor pivots. An empty
// query matches no source.
func (q *Query) IsEmpty() bool { return !q.HasWords() && !q.HasPivot() }
