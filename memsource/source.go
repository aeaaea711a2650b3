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


package memsource

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/poiesic/omnisearch/core"
	"github.com/poiesic/omnisearch/scoring"
	"github.com/poiesic/omnisearch/search"
	"github.com/poiesic/omnisearch/storage"
)

// Entries between cancellation checks while matching.
const checkInterval = 64

// ProcessFunc post-processes the matches of a query before they are
// published. It may filter, reorder or replace results.
type ProcessFunc func(ctx context.Context, q *core.Query, matches core.Results) core.Results

// ValueFunc computes an attribute of one of the source's results when it
// is first read. It reports false when it has nothing for key.
type ValueFunc func(ctx context.Context, key string, r *core.Result) (any, bool)

type entry struct {
	result *core.Result
	name   string
	terms  []string
}

// Source is a search.Source over an in-memory index.
type Source struct {
	search.BaseSource

	scorer   *scoring.Scorer
	cache    storage.ResultCacheRepository
	usage    storage.UsageRepository
	process  ProcessFunc
	values   ValueFunc
	priority int
	logger   *slog.Logger

	mu      sync.RWMutex
	entries []entry
}

var (
	_ search.Source      = (*Source)(nil)
	_ search.Prioritized = (*Source)(nil)
	_ search.Initializer = (*Source)(nil)
	_ core.ValueProvider = (*Source)(nil)
)

// Option configures a Source.
type Option func(*Source)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// WithScorer sets the scorer used for matching.
// Default is scoring.Default() at query time.
func WithScorer(scorer *scoring.Scorer) Option {
	return func(s *Source) {
		s.scorer = scorer
	}
}

// WithResultCache sets where SaveResultsCache and LoadResultsCache persist
// the index.
func WithResultCache(cache storage.ResultCacheRepository) Option {
	return func(s *Source) {
		s.cache = cache
	}
}

// WithUsage sets the store consulted for the last-used date of matches.
func WithUsage(usage storage.UsageRepository) Option {
	return func(s *Source) {
		s.usage = usage
	}
}

// WithProcessFunc sets the hook run on every query's matches.
func WithProcessFunc(f ProcessFunc) Option {
	return func(s *Source) {
		s.process = f
	}
}

// WithValueFunc sets how attributes missing from a result are filled in
// when read through core.Result.Value.
func WithValueFunc(f ValueFunc) Option {
	return func(s *Source) {
		s.values = f
	}
}

// WithPriority sets the priority used to break ties in the mix.
func WithPriority(priority int) Option {
	return func(s *Source) {
		s.priority = priority
	}
}

// WithPivotableTypes sets the pivot types the source accepts.
func WithPivotableTypes(types ...string) Option {
	return func(s *Source) {
		s.Pivotable = core.NewTypeSet(types...)
	}
}

// New creates an empty source.
func New(id, name string, opts ...Option) (*Source, error) {
	if id == "" {
		return nil, ErrEmptyIdentifier
	}
	s := &Source{
		BaseSource: search.BaseSource{ID: id, Name: name},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("source", id)
	return s, nil
}

// Priority implements search.Prioritized.
func (s *Source) Priority() int { return s.priority }

// ProvideValue implements core.ValueProvider.
func (s *Source) ProvideValue(ctx context.Context, key string, r *core.Result) (any, bool) {
	if s.values == nil || r == nil {
		return nil, false
	}
	return s.values(ctx, key, r)
}

// Initialize implements search.Initializer by loading the persisted index
// when a result cache is configured.
func (s *Source) Initialize(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	_, err := s.LoadResultsCache(ctx)
	return err
}

// IndexResult adds r to the index. name is what counts as a name match and
// defaults to the result's display name. otherTerms also match, for less.
// A result without a source is attributed to s.
func (s *Source) IndexResult(r *core.Result, name string, otherTerms ...string) error {
	if r == nil {
		return ErrNilResult
	}
	if r.Source() == nil {
		r = r.WithSource(s)
	}
	if name == "" {
		name = r.DisplayName()
	}
	terms := slices.DeleteFunc(slices.Clone(otherTerms), func(t string) bool { return t == "" })
	s.mu.Lock()
	s.entries = append(s.entries, entry{result: r, name: name, terms: terms})
	s.mu.Unlock()
	return nil
}

// ClearResultIndex removes every indexed result.
func (s *Source) ClearResultIndex() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

// Len returns the number of indexed results.
func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Source) snapshot() []entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// SaveResultsCache persists the index. The write is skipped when the index
// is unchanged since the last save or load; saved reports whether it
// happened.
func (s *Source) SaveResultsCache(ctx context.Context) (saved bool, err error) {
	if s.cache == nil {
		return false, ErrNoResultCache
	}
	entries := s.snapshot()
	cached := make([]storage.CachedResult, len(entries))
	for i, e := range entries {
		// The index name is kept as the first term.
		cached[i] = storage.FromResult(e.result, append([]string{e.name}, e.terms...))
	}
	saved, err = s.cache.SaveResults(ctx, s.Identifier(), cached)
	if err != nil {
		return false, err
	}
	s.logger.Debug("result cache saved", "results", len(cached), "written", saved)
	return saved, nil
}

// LoadResultsCache replaces the index with the persisted one. It reports
// whether anything was loaded.
func (s *Source) LoadResultsCache(ctx context.Context) (bool, error) {
	if s.cache == nil {
		return false, ErrNoResultCache
	}
	cached, err := s.cache.LoadResults(ctx, s.Identifier())
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	entries := make([]entry, 0, len(cached))
	for _, cr := range cached {
		r, err := cr.ToResult(s)
		if err != nil {
			s.logger.Warn("skipping invalid cached result", "uri", cr.URI, "err", err)
			continue
		}
		e := entry{result: r, name: r.DisplayName()}
		if len(cr.Terms) > 0 {
			e.name, e.terms = cr.Terms[0], cr.Terms[1:]
		}
		entries = append(entries, e)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	s.logger.Debug("result cache loaded", "results", len(entries))
	return len(entries) > 0, nil
}

// SearchOperationForQuery implements search.Source.
func (s *Source) SearchOperationForQuery(q *core.Query) *search.SearchOperation {
	return search.NewSearchOperation(q, s, s.run, search.WithClass(search.ClassMemory))
}

func (s *Source) run(ctx context.Context, op *search.SearchOperation) error {
	matches, err := s.Match(ctx, op.Query())
	if err != nil {
		return err
	}
	return op.SetResults(matches)
}

// Match returns the indexed results matching q, ranked by relative score.
func (s *Source) Match(ctx context.Context, q *core.Query) (core.Results, error) {
	scorer := s.scorer
	if scorer == nil {
		scorer = scoring.Default()
	}
	words := q.Words()
	entries := s.snapshot()

	var matches core.Results
	for i, e := range entries {
		if i%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(words) == 0 {
			matches = append(matches, e.result)
			continue
		}
		rank := scorer.RelativeScore(words, e.name, e.terms...)
		if rank <= 0 {
			continue
		}
		r := e.result.WithRank(rank)
		if scorer.Score(words, e.name) > 0 {
			r = r.WithRankFlags(core.RankNameMatch)
		}
		matches = append(matches, r)
	}

	matches = s.decorateUsage(ctx, matches)
	if s.process != nil {
		matches = s.process(ctx, q, matches)
	}
	matches.SortByRank()
	return matches, nil
}

func (s *Source) decorateUsage(ctx context.Context, matches core.Results) core.Results {
	if s.usage == nil || len(matches) == 0 {
		return matches
	}
	ids := make([]string, len(matches))
	for i, r := range matches {
		ids[i] = r.NormalizedIdentifier()
	}
	used, err := s.usage.LastUsedMany(ctx, ids...)
	if err != nil {
		s.logger.Warn("reading last-used dates failed", "err", err)
		return matches
	}
	for i, r := range matches {
		if t, ok := used[r.NormalizedIdentifier()]; ok && t.After(r.LastUsed()) {
			matches[i] = r.WithLastUsed(t)
		}
	}
	return matches
}
