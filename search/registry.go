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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Registry holds the sources available to new controllers.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sources: make(map[string]Source),
		logger:  logger,
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process wide registry.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(nil)
	})
	return defaultRegistry
}

// Register adds src. Sources implementing Initializer are initialized first
// and are not added if that fails.
func (r *Registry) Register(ctx context.Context, src Source) error {
	if src == nil {
		return ErrNilSource
	}
	id := src.Identifier()
	r.mu.RLock()
	_, exists := r.sources[id]
	r.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, id)
	}

	if init, ok := src.(Initializer); ok {
		if err := init.Initialize(ctx); err != nil {
			return fmt.Errorf("initializing source %s: %w", id, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sources[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, id)
	}
	r.sources[id] = src
	r.logger.Debug("registered source", "source", id)
	return nil
}

// Unregister removes the source with id, closing it if it implements
// io.Closer.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	src, ok := r.sources[id]
	delete(r.sources, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	r.logger.Debug("unregistered source", "source", id)
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Source returns the source with id.
func (r *Registry) Source(id string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[id]
	return src, ok
}

// Sources returns every registered source ordered by identifier.
func (r *Registry) Sources() []Source {
	r.mu.RLock()
	out := make([]Source, 0, len(r.sources))
	for _, src := range r.sources {
		out = append(out, src)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b Source) int {
		return strings.Compare(a.Identifier(), b.Identifier())
	})
	return out
}

// Close unregisters every source.
func (r *Registry) Close() error {
	var errs []error
	for _, src := range r.Sources() {
		if err := r.Unregister(src.Identifier()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
