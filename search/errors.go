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

import "errors"

var (
	// ErrAlreadyStarted is returned when StartQuery is called more than once.
	ErrAlreadyStarted = errors.New("query already started")

	// ErrOperationFinished is returned when results are published or the
	// operation is finished after it has already finished.
	ErrOperationFinished = errors.New("search operation already finished")

	// ErrOperationCancelled is returned when results are published to a
	// cancelled operation.
	ErrOperationCancelled = errors.New("search operation cancelled")

	// ErrSourcePanicked wraps a panic recovered from a source.
	ErrSourcePanicked = errors.New("source panicked")

	// ErrSchedulerReleased is returned when scheduling on a released scheduler.
	ErrSchedulerReleased = errors.New("scheduler released")

	// ErrNilSource is returned when a nil source is registered.
	ErrNilSource = errors.New("source required")

	// ErrNilQuery is returned when a controller is created without a query.
	ErrNilQuery = errors.New("query required")

	// ErrDuplicateSource is returned when a source identifier is already registered.
	ErrDuplicateSource = errors.New("source already registered")

	// ErrSourceNotFound is returned when no source has the requested identifier.
	ErrSourceNotFound = errors.New("source not found")
)
