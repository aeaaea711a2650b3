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


// Package storage defines the persistence used by omnisearch sources.
//
// Two repositories are defined. A ResultCacheRepository keeps the indexed
// results of a memory source so that it can be rebuilt at startup without
// rescanning its origin. A UsageRepository records when a result was last
// opened, which sources use as the last-used date of their results.
//
// # Backends
//
// Package storage/badger implements both repositories on a shared BadgerDB
// Backend:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	cache := badger.NewResultCacheRepository(backend)
//	usage := badger.NewUsageRepository(backend)
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	cache, usage, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use.
package storage
