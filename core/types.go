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
	"slices"
	"strings"
)

// TypeSeparator separates the segments of a hierarchical type.
const TypeSeparator = "."

// AnyType matches every type when used in a TypeSet.
const AnyType = "*"

// Common base types. Sources are free to introduce new ones.
const (
	TypeContact     = "contact"
	TypeFile        = "file"
	TypeEmail       = "email"
	TypeWebpage     = "webpage"
	TypeOnebox      = "onebox"
	TypeAction      = "action"
	TypeText        = "text"
	TypeScript      = "script"
	TypeDateTime    = "datetime"
	TypeGeolocation = "geolocation"
)

// Common refinements.
const (
	TypeSearch           = TypeText + TypeSeparator + "search"
	TypeSuggest          = TypeText + TypeSeparator + "suggestion"
	TypeDirectory        = TypeFile + TypeSeparator + "directory"
	TypeTextFile         = TypeFile + TypeSeparator + "text"
	TypeFileApplication  = TypeFile + TypeSeparator + "application"
	TypeWebBookmark      = TypeWebpage + TypeSeparator + "bookmark"
	TypeWebHistory       = TypeWebpage + TypeSeparator + "history"
	TypeWebApplication   = TypeWebpage + TypeSeparator + "application"
	TypeFileMedia        = TypeFile + TypeSeparator + "media"
	TypeFileMusic        = TypeFileMedia + TypeSeparator + "music"
	TypeFileImage        = TypeFileMedia + TypeSeparator + "image"
	TypeFileMovie        = TypeFileMedia + TypeSeparator + "movie"
	TypeWebMedia         = TypeWebpage + TypeSeparator + "media"
	TypeTextUserInput    = TypeText + TypeSeparator + "userinput"
	TypeTextPhoneNumber  = TypeText + TypeSeparator + "phonenumber"
	TypeTextEmailAddress = TypeText + TypeSeparator + "emailaddress"
)

// SubType joins a base type and its refinements.
func SubType(base string, refinements ...string) string {
	parts := append([]string{base}, refinements...)
	return strings.Join(parts, TypeSeparator)
}

// Category returns the top-level segment of a type.
func Category(typ string) string {
	if i := strings.Index(typ, TypeSeparator); i >= 0 {
		return typ[:i]
	}
	return typ
}

// TypeConforms reports whether typ is base or a refinement of base.
// AnyType conforms to everything.
func TypeConforms(typ, base string) bool {
	if base == AnyType {
		return true
	}
	if typ == base {
		return true
	}
	return len(typ) > len(base) &&
		strings.HasPrefix(typ, base) &&
		typ[len(base):len(base)+1] == TypeSeparator
}

// ValidateType checks that typ is non-empty and has no empty segments.
func ValidateType(typ string) error {
	if typ == "" {
		return ErrEmptyType
	}
	if typ == AnyType {
		return nil
	}
	for _, segment := range strings.Split(typ, TypeSeparator) {
		if segment == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidType, typ)
		}
	}
	return nil
}

// TypeSet is an unordered set of types.
type TypeSet map[string]struct{}

// NewTypeSet creates a set containing types.
func NewTypeSet(types ...string) TypeSet {
	set := make(TypeSet, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

// Contains reports whether typ is a member of the set.
func (s TypeSet) Contains(typ string) bool {
	_, ok := s[typ]
	return ok
}

// Accepts reports whether typ conforms to any member of the set.
func (s TypeSet) Accepts(typ string) bool {
	if s.Contains(AnyType) || s.Contains(typ) {
		return true
	}
	for base := range s {
		if TypeConforms(typ, base) {
			return true
		}
	}
	return false
}

// Sorted returns the members in lexical order.
func (s TypeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
