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


// Package memsource provides a search source over results that are computed
// ahead of time and kept in memory.
//
// Results are added with IndexResult under a name and any number of other
// terms. A query's words are scored against the name and the other terms,
// the other terms counting for less, and the relative score becomes the
// result's rank. A query with a pivot but no words matches every indexed
// result, leaving the ProcessFunc to filter by the pivot.
//
// The index can be persisted to a storage.ResultCacheRepository so that it
// is available immediately at startup:
//
//	src, _ := memsource.New("com.example.apps", "Applications",
//	    memsource.WithResultCache(cache))
//	_, _ = src.LoadResultsCache(ctx)
//	// ...rescan, IndexResult...
//	_, _ = src.SaveResultsCache(ctx)
package memsource
