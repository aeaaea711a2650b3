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


// Package core defines the value types shared by every stage of the query
// pipeline.
//
// A Query is an immutable, tokenized user request, optionally scoped to one
// or more pivot Results. A Result is an immutable scored item produced by a
// source; modifications always return a new Result (WithAttributes,
// MergeWith, WithRank), so Results can be read from any goroutine without
// locking. Results is an ordered collection with type filters and the
// category grouping used for presentation.
//
// Types are hierarchical, dot-separated strings ("file.media.music").
// IsOfType checks for an exact match while ConformsToType also accepts
// refinements of the given type.
package core
