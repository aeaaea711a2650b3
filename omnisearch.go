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


// Package omnisearch wires the query pipeline together: storage, the source
// registry, the operation scheduler and query controllers.
package omnisearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/omnisearch/clock"
	"github.com/poiesic/omnisearch/config"
	"github.com/poiesic/omnisearch/core"
	"github.com/poiesic/omnisearch/memsource"
	"github.com/poiesic/omnisearch/search"
	"github.com/poiesic/omnisearch/storage"
	"github.com/poiesic/omnisearch/storage/badger"
)

// Engine owns the long lived parts of the search pipeline.
type Engine struct {
	cfg       *config.Config
	backend   *badger.Backend
	cacheRepo storage.ResultCacheRepository
	usageRepo storage.UsageRepository
	registry  *search.Registry
	scheduler *search.Scheduler
	clock     clock.Clock
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	config *config.Config
	logger *slog.Logger
	clock  clock.Clock
}

// WithConfig sets the configuration.
// Default is config.DefaultConfig().
func WithConfig(cfg *config.Config) EngineOption {
	return func(o *engineOptions) {
		o.config = cfg
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithClock sets the clock used for usage dates and query timers.
func WithClock(c clock.Clock) EngineOption {
	return func(o *engineOptions) {
		o.clock = c
	}
}

// Open creates an Engine. The configured scoring factors become the
// process-wide factors.
func Open(opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		config: config.DefaultConfig(),
		logger: slog.Default(),
		clock:  clock.Real(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	cfg := options.config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.ApplyScoring(); err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(cfg.Storage.Path, cfg.Storage.InMemory, badger.WithLogger(options.logger))
	if err != nil {
		return nil, err
	}

	scheduler, err := search.NewScheduler(append(cfg.SchedulerOptions(), search.WithSchedulerLogger(options.logger))...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		backend:   backend,
		cacheRepo: badger.NewResultCacheRepository(backend),
		usageRepo: badger.NewUsageRepository(backend),
		registry:  search.NewRegistry(options.logger),
		scheduler: scheduler,
		clock:     options.clock,
		logger:    options.logger,
	}, nil
}

// Close unregisters every source and releases storage.
func (e *Engine) Close() error {
	var errs []error
	if err := e.registry.Close(); err != nil {
		e.logger.Error("error closing sources", "err", err)
		errs = append(errs, err)
	}
	e.scheduler.Release()
	if err := e.cacheRepo.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := e.usageRepo.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Config returns the configuration the engine was opened with.
func (e *Engine) Config() *config.Config { return e.cfg }

// Registry returns the registry queried by every controller.
func (e *Engine) Registry() *search.Registry { return e.registry }

// ResultCache returns the store memory sources save their index to.
func (e *Engine) ResultCache() storage.ResultCacheRepository { return e.cacheRepo }

// Usage returns the last-used store written by Promote.
func (e *Engine) Usage() storage.UsageRepository { return e.usageRepo }

// NewMemorySource creates a memory source backed by the engine's storage and
// registers it. A previously saved index is loaded.
func (e *Engine) NewMemorySource(ctx context.Context, id, name string, opts ...memsource.Option) (*memsource.Source, error) {
	base := []memsource.Option{
		memsource.WithResultCache(e.cacheRepo),
		memsource.WithUsage(e.usageRepo),
		memsource.WithLogger(e.logger),
	}
	src, err := memsource.New(id, name, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := e.registry.Register(ctx, src); err != nil {
		return nil, err
	}
	return src, nil
}

// NewQuery creates a query with the configured result ceiling.
func (e *Engine) NewQuery(raw string, opts ...core.QueryOption) *core.Query {
	base := []core.QueryOption{core.WithMaxDesiredResults(e.cfg.Query.MaxResults)}
	return core.NewQuery(raw, append(base, opts...)...)
}

// NewQueryController creates a controller for q over every registered
// source.
func (e *Engine) NewQueryController(q *core.Query, opts ...search.Option) (*search.Controller, error) {
	base := []search.Option{
		search.WithScheduler(e.scheduler),
		search.WithLogger(e.logger),
		search.WithClock(e.clock),
	}
	base = append(base, e.cfg.ControllerOptions()...)
	return search.NewController(q, e.registry.Sources(), append(base, opts...)...)
}

// Search runs raw to completion and returns the final snapshot. If ctx ends
// first the query is cancelled and ctx's error returned.
func (e *Engine) Search(ctx context.Context, raw string, opts ...search.Option) (*search.Snapshot, error) {
	c, err := e.NewQueryController(e.NewQuery(raw), opts...)
	if err != nil {
		return nil, err
	}
	if err := c.StartQuery(ctx); err != nil {
		return nil, err
	}
	if err := c.Wait(ctx); err != nil {
		c.Cancel()
		return nil, err
	}
	if c.IsCancelled() {
		if err := context.Cause(ctx); err != nil {
			return nil, err
		}
		return nil, search.ErrOperationCancelled
	}
	return c.Snapshot(), nil
}

// Promote records that r was used now, raising its last-used date in future
// results.
func (e *Engine) Promote(ctx context.Context, r *core.Result) error {
	if r == nil {
		return core.ErrInvalidResult
	}
	return e.usageRepo.RecordUsage(ctx, r.NormalizedIdentifier(), e.clock.Now().UTC())
}
