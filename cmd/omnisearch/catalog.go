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



package main

import (
	"fmt"
	"os"

	"github.com/poiesic/omnisearch/core"
	"gopkg.in/yaml.v3"
)

// Catalog lists the items each in-memory source serves.
type Catalog struct {
	Sources []CatalogSource `yaml:"sources"`
}

// CatalogSource describes one source and its items. A source with no items
// is served from the saved result cache.
type CatalogSource struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Priority int           `yaml:"priority"`
	Items    []CatalogItem `yaml:"items"`
}

// CatalogItem is one indexed result.
type CatalogItem struct {
	URI     string   `yaml:"uri"`
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Snippet string   `yaml:"snippet"`
	Terms   []string `yaml:"terms"`
}

func loadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	seen := make(map[string]bool, len(cat.Sources))
	for i, src := range cat.Sources {
		if src.ID == "" {
			return nil, fmt.Errorf("catalog source %d has no id", i)
		}
		if seen[src.ID] {
			return nil, fmt.Errorf("catalog source %q listed twice", src.ID)
		}
		seen[src.ID] = true
	}
	return &cat, nil
}

// Result builds the core result for the item, attributed to src.
func (it CatalogItem) Result(src core.Extension) (*core.Result, error) {
	typ := it.Type
	if typ == "" {
		typ = core.TypeFile
	}
	var attrs core.Attributes
	if it.Snippet != "" {
		attrs = core.Attributes{core.AttrSnippet: it.Snippet}
	}
	r, err := core.NewResult(it.URI, it.Name, typ, src, attrs)
	if err != nil {
		return nil, fmt.Errorf("catalog item %q: %w", it.URI, err)
	}
	return r, nil
}
