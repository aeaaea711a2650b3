package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/omnisearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSource returns fixed results, or runs a custom function.
type testSource struct {
	BaseSource
	results    core.Results
	run        RunFunc
	concurrent bool
	class      Class
	priority   int
	valid      func(q *core.Query) bool
	annotate   func(r *core.Result) core.Attributes

	mu        sync.Mutex
	annotated int
	closed    bool
	initErr   error
	inited    bool
}

func newTestSource(id string, results ...*core.Result) *testSource {
	return &testSource{
		BaseSource: BaseSource{ID: id, Name: id},
		results:    results,
	}
}

func (s *testSource) Priority() int { return s.priority }

func (s *testSource) IsValidSourceForQuery(q *core.Query) bool {
	if s.valid != nil {
		return s.valid(q)
	}
	return s.BaseSource.IsValidSourceForQuery(q)
}

func (s *testSource) SearchOperationForQuery(q *core.Query) *SearchOperation {
	run := s.run
	if run == nil {
		run = func(_ context.Context, op *SearchOperation) error {
			return op.SetResults(s.results)
		}
	}
	return NewSearchOperation(q, s, run, WithConcurrent(s.concurrent), WithClass(s.class))
}

func (s *testSource) Annotate(_ context.Context, r *core.Result, _ *core.Query) core.Attributes {
	s.mu.Lock()
	s.annotated++
	s.mu.Unlock()
	if s.annotate == nil {
		return nil
	}
	return s.annotate(r)
}

func (s *testSource) Initialize(_ context.Context) error {
	s.inited = true
	return s.initErr
}

func (s *testSource) Close() error {
	s.closed = true
	return nil
}

func (s *testSource) annotations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.annotated
}

func result(t *testing.T, uri, name, typ string, rank float64) *core.Result {
	t.Helper()
	r, err := core.NewResult(uri, name, typ, nil, core.Attributes{core.AttrRank: rank})
	require.NoError(t, err)
	return r
}

func names(rs core.Results) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.DisplayName()
	}
	return out
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestIsEligible(t *testing.T) {
	contact := result(t, "contact:1", "Ann", core.TypeContact, 0.5)
	music := result(t, "file:///a.mp3", "a.mp3", core.TypeFileMusic, 0.5)

	tests := []struct {
		name      string
		pivotable core.TypeSet
		query     *core.Query
		want      bool
	}{
		{name: "words only", query: core.NewQuery("ipho"), want: true},
		{name: "empty query", query: core.NewQuery("  "), want: false},
		{name: "pivot not accepted", query: core.NewQuery("", core.WithPivots(contact)), want: false},
		{
			name:      "pivot accepted",
			pivotable: core.NewTypeSet(core.TypeContact),
			query:     core.NewQuery("", core.WithPivots(contact)),
			want:      true,
		},
		{
			name:      "pivot conforms to parent type",
			pivotable: core.NewTypeSet(core.TypeFileMedia),
			query:     core.NewQuery("", core.WithPivots(music)),
			want:      true,
		},
		{
			name:      "every pivot must be accepted",
			pivotable: core.NewTypeSet(core.TypeContact),
			query:     core.NewQuery("", core.WithPivots(contact, music)),
			want:      false,
		},
		{
			name:      "any type",
			pivotable: core.NewTypeSet(core.AnyType),
			query:     core.NewQuery("x", core.WithPivots(contact, music)),
			want:      true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource("src")
			src.Pivotable = tt.pivotable
			assert.Equal(t, tt.want, IsEligible(src, tt.query))
		})
	}

	t.Run("source declines", func(t *testing.T) {
		src := newTestSource("src")
		src.valid = func(*core.Query) bool { return false }
		assert.False(t, IsEligible(src, core.NewQuery("ipho")))
	})

	t.Run("nil arguments", func(t *testing.T) {
		assert.False(t, IsEligible(nil, core.NewQuery("ipho")))
		assert.False(t, IsEligible(newTestSource("src"), nil))
	})
}

func TestBaseSource(t *testing.T) {
	b := &BaseSource{ID: "com.example.apps"}
	assert.Equal(t, "com.example.apps", b.DisplayName())
	assert.NotNil(t, b.PivotableTypes())
	assert.Nil(t, b.Annotate(context.Background(), nil, nil))

	b.Name = "Applications"
	assert.Equal(t, "Applications", b.DisplayName())
}
