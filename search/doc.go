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


// Package search runs a query against a set of sources and publishes a
// progressively refined, ranked view of their results.
//
// A Source produces one SearchOperation per query. The Controller builds an
// operation for every eligible source, runs them, and mixes their results
// whenever they change. Operations that are not concurrent run on a shared
// Scheduler, which runs at most one disk bound operation at a time.
// Concurrent operations run their own work and must call FinishQuery.
//
// Before the slow source timeout elapses the Controller waits for every
// operation to finish before mixing. Once it elapses, every update triggers
// a mix, rate limited so that a chatty source cannot starve readers. The
// latest completed mix is published as an immutable Snapshot that can be
// read from any goroutine.
//
// Cancelling a Controller cancels every operation and the active mix. No
// snapshot is published after Cancel returns.
package search
