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


// Package mixer merges per-source result lists into one ranked list.
//
// Each input Stream is expected to be sorted by descending effective rank.
// The Mixer performs a k-way merge ordered by effective rank, then stream
// priority, then stream order, then position within the stream, so the same
// inputs always produce the same output.
//
// Only the first ceiling positions of the output are deduplicated: a result
// whose normalized identifier matches an earlier entry is merged into that
// entry and dropped. Results past the ceiling are kept in Output.More for
// counting but are not deduplicated.
//
// Run mixes on the calling goroutine until the time budget is spent and
// then finishes on a background goroutine. A Mixer is single use.
package mixer
