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


package search

import (
	"context"

	"github.com/poiesic/omnisearch/core"
)

// Source produces results for queries. Sources are long lived and must be
// safe to query from several controllers at once. A source that also
// implements core.ValueProvider fills in attributes of its results lazily.
type Source interface {
	core.Extension

	// PivotableTypes lists the pivot types the source accepts. AnyType
	// accepts every pivot.
	PivotableTypes() core.TypeSet

	// IsValidSourceForQuery reports whether the source wants to run q.
	IsValidSourceForQuery(q *core.Query) bool

	// SearchOperationForQuery creates the operation that runs q. Returning
	// nil skips the source.
	SearchOperationForQuery(q *core.Query) *SearchOperation

	// Annotate returns attributes to add to a result found by any source.
	// It must not block for long and may return nil.
	Annotate(ctx context.Context, r *core.Result, q *core.Query) core.Attributes
}

// Prioritized is implemented by sources whose results should win ties in
// the mix.
type Prioritized interface {
	Priority() int
}

// Initializer is implemented by sources that need setup when registered.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// BaseSource implements the parts of Source most sources share. Embed it
// and implement SearchOperationForQuery.
type BaseSource struct {
	ID        string
	Name      string
	Pivotable core.TypeSet
}

// Identifier implements core.Extension.
func (b *BaseSource) Identifier() string { return b.ID }

// DisplayName implements core.Extension. It falls back to the identifier.
func (b *BaseSource) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	return b.ID
}

// PivotableTypes implements Source.
func (b *BaseSource) PivotableTypes() core.TypeSet {
	if b.Pivotable == nil {
		return core.TypeSet{}
	}
	return b.Pivotable
}

// IsValidSourceForQuery implements Source. A query is valid when it has a
// pivot or at least one word.
func (b *BaseSource) IsValidSourceForQuery(q *core.Query) bool {
	return q.HasPivot() || q.HasWords()
}

// Annotate implements Source and adds nothing.
func (b *BaseSource) Annotate(_ context.Context, _ *core.Result, _ *core.Query) core.Attributes {
	return nil
}

// IsEligible reports whether src should run q. Every pivot must be accepted
// by the source's pivotable types, then the source must consider the query
// valid. An empty query runs nowhere.
func IsEligible(src Source, q *core.Query) bool {
	if src == nil || q == nil || q.IsEmpty() {
		return false
	}
	if q.HasPivot() {
		accepted := src.PivotableTypes()
		for _, pivot := range q.Pivots() {
			if !accepted.Accepts(pivot.Type()) {
				return false
			}
		}
	}
	return src.IsValidSourceForQuery(q)
}

func priorityOf(src Source) int {
	if p, ok := src.(Prioritized); ok {
		return p.Priority()
	}
	return 0
}
