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
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Well-known attribute keys.
const (
	AttrName                 = "name"
	AttrURI                  = "uri"
	AttrType                 = "type"
	AttrSnippet              = "snippet"
	AttrSourceURL            = "sourceURL"
	AttrUniqueIdentifiers    = "uniqueIdentifiers"
	AttrNormalizedIdentifier = "normalizedIdentifier"
	AttrRank                 = "rank"
	AttrRankFlags            = "rankFlags"
	AttrLastUsedDate         = "lastUsedDate"
)

// Extension identifies a pluggable component. Sources implement it, and every
// Result keeps a reference to the Extension that produced it.
type Extension interface {
	Identifier() string
	DisplayName() string
}

// ValueProvider is implemented by extensions that fill in attributes of
// their results on demand. ProvideValue reports false when it has nothing
// for key.
type ValueProvider interface {
	ProvideValue(ctx context.Context, key string, r *Result) (any, bool)
}

// Attributes maps attribute keys to values.
type Attributes map[string]any

// clone copies the map. []string values are copied too, the rest are shared.
func (a Attributes) clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		if s, ok := v.([]string); ok {
			v = slices.Clone(s)
		}
		out[k] = v
	}
	return out
}

// Result is one matched item. It is never modified after construction.
type Result struct {
	uri          string
	name         string
	typ          string
	source       Extension
	attrs        Attributes
	rank         float64
	flags        RankFlags
	lastUsed     time.Time
	normalizedID string
	idHash       ID
	provided     *providedValues
}

// providedValues caches what a ValueProvider returned. Copies of a result
// share it.
type providedValues struct {
	mu     sync.Mutex
	values map[string]any
}

func (p *providedValues) load(key string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	return v, ok
}

func (p *providedValues) store(key string, v any) any {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prev, ok := p.values[key]; ok {
		return prev
	}
	if p.values == nil {
		p.values = make(map[string]any)
	}
	p.values[key] = v
	return v
}

// NewResult creates a Result. The rank, rank flags, last-used date and
// normalized identifier keys are lifted out of attrs into fields; every other
// key is copied into the result's attribute map.
func NewResult(uri, name, typ string, source Extension, attrs Attributes) (*Result, error) {
	r := &Result{
		uri:      uri,
		name:     name,
		typ:      typ,
		source:   source,
		attrs:    make(Attributes, len(attrs)),
		provided: &providedValues{},
	}
	for k, v := range attrs {
		r.setAttribute(k, v)
	}
	if err := ValidateResult(r); err != nil {
		return nil, err
	}
	r.finish()
	return r, nil
}

// MustNewResult is NewResult for static data. It panics on invalid input.
func MustNewResult(uri, name, typ string, source Extension, attrs Attributes) *Result {
	r, err := NewResult(uri, name, typ, source, attrs)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Result) setAttribute(key string, value any) {
	switch key {
	case AttrRank:
		if f, ok := toFloat(value); ok {
			r.rank = clampRank(f)
		}
	case AttrRankFlags:
		switch v := value.(type) {
		case RankFlags:
			r.flags |= v
		case uint32:
			r.flags |= RankFlags(v)
		case int:
			r.flags |= RankFlags(v)
		}
	case AttrLastUsedDate:
		if t, ok := value.(time.Time); ok && t.After(r.lastUsed) {
			r.lastUsed = t
		}
	case AttrNormalizedIdentifier:
		if s, ok := value.(string); ok && s != "" {
			r.normalizedID = s
		}
	case AttrURI, AttrName, AttrType:
		// identity is fixed at construction
	default:
		if s, ok := value.([]string); ok {
			value = slices.Clone(s)
		}
		r.attrs[key] = value
	}
}

func (r *Result) finish() {
	if r.normalizedID == "" {
		r.normalizedID = NormalizeIdentifier(r.uri)
	}
	r.idHash = IDFromContent(r.normalizedID)
}

func (r *Result) copy() *Result {
	c := *r
	c.attrs = r.attrs.clone()
	return &c
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// URI returns the stable identifier.
func (r *Result) URI() string { return r.uri }

// DisplayName returns the name shown to the user.
func (r *Result) DisplayName() string { return r.name }

// Type returns the hierarchical type string.
func (r *Result) Type() string { return r.typ }

// Category returns the top-level segment of the type.
func (r *Result) Category() string { return Category(r.typ) }

// Source returns the extension that produced the result, or nil.
func (r *Result) Source() Extension { return r.source }

// Rank returns the raw match score in [0,1].
func (r *Result) Rank() float64 { return r.rank }

// RankFlags returns the rank-influencing flags.
func (r *Result) RankFlags() RankFlags { return r.flags }

// EffectiveRank is the rank adjusted by the rank flags. Results are ordered
// by it everywhere.
func (r *Result) EffectiveRank() float64 { return AdjustRank(r.rank, r.flags) }

// LastUsed returns when the user last acted on the item. Zero if never.
func (r *Result) LastUsed() time.Time { return r.lastUsed }

// NormalizedIdentifier returns the identifier used for duplicate detection.
func (r *Result) NormalizedIdentifier() string { return r.normalizedID }

// IDHash returns the content hash of the normalized identifier.
func (r *Result) IDHash() ID { return r.idHash }

// Attribute returns the value stored under key.
func (r *Result) Attribute(key string) (any, bool) {
	v, ok := r.attrs[key]
	return v, ok
}

// Value returns the attribute for key. Keys the result does not hold are
// asked of its source when the source is a ValueProvider, and the answer is
// kept for later calls.
func (r *Result) Value(ctx context.Context, key string) (any, bool) {
	switch key {
	case AttrURI:
		return r.uri, true
	case AttrName:
		return r.name, true
	case AttrType:
		return r.typ, true
	}
	if v, ok := r.attrs[key]; ok {
		return v, true
	}
	p, ok := r.source.(ValueProvider)
	if !ok {
		return nil, false
	}
	if r.provided != nil {
		if v, ok := r.provided.load(key); ok {
			return v, true
		}
	}
	v, ok := p.ProvideValue(ctx, key, r)
	if !ok {
		return nil, false
	}
	if r.provided != nil {
		v = r.provided.store(key, v)
	}
	return v, true
}

// StringAttribute returns the string stored under key, or "".
func (r *Result) StringAttribute(key string) string {
	s, _ := r.attrs[key].(string)
	return s
}

// Snippet returns the snippet attribute, or "".
func (r *Result) Snippet() string { return r.StringAttribute(AttrSnippet) }

// Attributes returns a copy of the attribute map.
func (r *Result) Attributes() Attributes { return r.attrs.clone() }

// WithAttributes returns a new Result with attrs added. Existing keys are
// overwritten. Identity, type and normalized identifier never change.
func (r *Result) WithAttributes(attrs Attributes) *Result {
	if len(attrs) == 0 {
		return r
	}
	c := r.copy()
	for k, v := range attrs {
		if k == AttrNormalizedIdentifier {
			continue
		}
		c.setAttribute(k, v)
	}
	return c
}

// WithSource returns a new Result attributed to source. Values provided by
// the previous source are not carried over.
func (r *Result) WithSource(source Extension) *Result {
	c := r.copy()
	c.source = source
	c.provided = &providedValues{}
	return c
}

// WithRank returns a new Result with the given raw rank.
func (r *Result) WithRank(rank float64) *Result {
	c := r.copy()
	c.rank = clampRank(rank)
	return c
}

// WithRankFlags returns a new Result with flags added to its rank flags.
func (r *Result) WithRankFlags(flags RankFlags) *Result {
	c := r.copy()
	c.flags |= flags
	return c
}

// WithLastUsed returns a new Result with the last-used date set to t.
func (r *Result) WithLastUsed(t time.Time) *Result {
	c := r.copy()
	c.lastUsed = t
	return c
}

// MergeWith returns a new Result combining r and other. Single-valued
// attributes conflicting between the two keep r's value; []string values are
// unioned. Rank flags are combined and the later last-used date wins. The
// rank and identity of r are kept, so callers merge the lower-ranked result
// into the higher-ranked one.
func (r *Result) MergeWith(other *Result) *Result {
	if other == nil || other == r {
		return r
	}
	c := r.copy()
	for k, v := range other.attrs {
		mine, ok := c.attrs[k]
		if !ok {
			if s, isSlice := v.([]string); isSlice {
				v = slices.Clone(s)
			}
			c.attrs[k] = v
			continue
		}
		a, aok := mine.([]string)
		b, bok := v.([]string)
		if aok && bok {
			c.attrs[k] = unionStrings(a, b)
		}
	}
	c.flags |= other.flags
	if other.lastUsed.After(c.lastUsed) {
		c.lastUsed = other.lastUsed
	}
	return c
}

func unionStrings(a, b []string) []string {
	out := slices.Clone(a)
	for _, s := range b {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// IsDuplicate reports whether r and other represent the same item.
func (r *Result) IsDuplicate(other *Result) bool {
	if other == nil {
		return false
	}
	if r == other {
		return true
	}
	return r.idHash == other.idHash && r.normalizedID == other.normalizedID
}

// Equal reports exact equality of URI, name and type. Two results can be
// duplicates without being equal.
func (r *Result) Equal(other *Result) bool {
	if other == nil {
		return false
	}
	return r.uri == other.uri && r.typ == other.typ && r.name == other.name
}

// IsOfType reports whether the type is exactly typ.
func (r *Result) IsOfType(typ string) bool { return r.typ == typ }

// ConformsToType reports whether the type is typ or a refinement of it.
func (r *Result) ConformsToType(typ string) bool { return TypeConforms(r.typ, typ) }

// ConformsToTypeSet reports whether the type conforms to any member of set.
func (r *Result) ConformsToTypeSet(set TypeSet) bool { return set.Accepts(r.typ) }

// String implements fmt.Stringer.
func (r *Result) String() string {
	return fmt.Sprintf("%s (%s) %s rank=%.3f", r.name, r.typ, r.uri, r.EffectiveRank())
}
