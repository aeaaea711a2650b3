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

import (
	"fmt"
	"strings"
)

// ValidateResult checks the identity fields of a Result.
func ValidateResult(r *Result) error {
	if r == nil {
		return fmt.Errorf("%w: result is nil", ErrInvalidResult)
	}
	if strings.TrimSpace(r.uri) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidResult, ErrEmptyURI)
	}
	if strings.TrimSpace(r.name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidResult, ErrEmptyName)
	}
	if err := ValidateType(r.typ); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResult, err)
	}
	return nil
}
