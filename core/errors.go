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


package core

import "errors"

var (
	// ErrInvalidResult indicates a Result failed validation.
	ErrInvalidResult = errors.New("invalid result")

	// ErrEmptyURI indicates the URI of a Result is empty.
	ErrEmptyURI = errors.New("uri cannot be empty")

	// ErrEmptyName indicates the display name of a Result is empty.
	ErrEmptyName = errors.New("display name cannot be empty")

	// ErrEmptyType indicates the type of a Result is empty.
	ErrEmptyType = errors.New("type cannot be empty")

	// ErrInvalidType indicates a type string has an empty segment.
	ErrInvalidType = errors.New("invalid type")
)
