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


package storage

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/omnisearch/core"
)

// Cached result lists are encoded as a count followed by each result:
//
//	uri name type identifier          ord strings
//	rank                              varint of the IEEE 754 bits
//	rankFlags                         varint
//	lastUsed                          varint Unix microseconds, 0 when unset
//	terms                             count, then ord strings
//	attributes                        count, then key/value ord strings by key

// MarshalTime serializes a timestamp with microsecond precision.
func MarshalTime(t time.Time) []byte {
	v := timeToMicros(t)
	buf := make([]byte, varint.Int64.Size(v))
	varint.Int64.Marshal(v, buf)
	return buf
}

// UnmarshalTime deserializes a timestamp written by MarshalTime.
func UnmarshalTime(data []byte) (time.Time, error) {
	v, _, err := varint.Int64.Unmarshal(data)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return microsToTime(v), nil
}

// MarshalCachedResults serializes a list of cached results. Encoding is
// deterministic, so equal lists produce equal bytes.
func MarshalCachedResults(results []CachedResult) []byte {
	size := varint.Uint64.Size(uint64(len(results)))
	for i := range results {
		size += sizeCachedResult(&results[i])
	}
	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(len(results)), buf)
	for i := range results {
		n += marshalCachedResult(&results[i], buf[n:])
	}
	return buf
}

// UnmarshalCachedResults deserializes a list written by
// MarshalCachedResults.
func UnmarshalCachedResults(data []byte) ([]CachedResult, error) {
	r := &reader{bs: data}
	count := r.count()
	if r.err != nil {
		return nil, r.err
	}
	results := make([]CachedResult, 0, count)
	for range count {
		cr := CachedResult{
			URI:        r.string(),
			Name:       r.string(),
			Type:       r.string(),
			Identifier: r.string(),
			Rank:       math.Float64frombits(r.uint64()),
			RankFlags:  core.RankFlags(r.uint64()),
			LastUsed:   microsToTime(r.int64()),
		}
		if n := r.count(); n > 0 {
			cr.Terms = make([]string, n)
			for i := range cr.Terms {
				cr.Terms[i] = r.string()
			}
		}
		if n := r.count(); n > 0 {
			cr.Attributes = make(map[string]string, n)
			for range n {
				k := r.string()
				cr.Attributes[k] = r.string()
			}
		}
		if r.err != nil {
			return nil, r.err
		}
		results = append(results, cr)
	}
	if len(r.bs) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(r.bs))
	}
	return results, nil
}

// ContentHash identifies an encoded value for change detection.
func ContentHash(data []byte) core.ID {
	return core.IDFromContent(string(data))
}

func sizeCachedResult(cr *CachedResult) int {
	size := ord.String.Size(cr.URI) +
		ord.String.Size(cr.Name) +
		ord.String.Size(cr.Type) +
		ord.String.Size(cr.Identifier) +
		varint.Uint64.Size(math.Float64bits(cr.Rank)) +
		varint.Uint64.Size(uint64(cr.RankFlags)) +
		varint.Int64.Size(timeToMicros(cr.LastUsed))
	size += varint.Uint64.Size(uint64(len(cr.Terms)))
	for _, term := range cr.Terms {
		size += ord.String.Size(term)
	}
	size += varint.Uint64.Size(uint64(len(cr.Attributes)))
	for k, v := range cr.Attributes {
		size += ord.String.Size(k) + ord.String.Size(v)
	}
	return size
}

func marshalCachedResult(cr *CachedResult, bs []byte) int {
	n := ord.String.Marshal(cr.URI, bs)
	n += ord.String.Marshal(cr.Name, bs[n:])
	n += ord.String.Marshal(cr.Type, bs[n:])
	n += ord.String.Marshal(cr.Identifier, bs[n:])
	n += varint.Uint64.Marshal(math.Float64bits(cr.Rank), bs[n:])
	n += varint.Uint64.Marshal(uint64(cr.RankFlags), bs[n:])
	n += varint.Int64.Marshal(timeToMicros(cr.LastUsed), bs[n:])
	n += varint.Uint64.Marshal(uint64(len(cr.Terms)), bs[n:])
	for _, term := range cr.Terms {
		n += ord.String.Marshal(term, bs[n:])
	}
	n += varint.Uint64.Marshal(uint64(len(cr.Attributes)), bs[n:])
	for _, k := range slices.Sorted(maps.Keys(cr.Attributes)) {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(cr.Attributes[k], bs[n:])
	}
	return n
}

func timeToMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microsToTime(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

// reader consumes values until the first error, which it keeps.
type reader struct {
	bs  []byte
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %w", ErrTruncatedData, err)
	}
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.bs)
	if err != nil {
		r.fail(err)
		return 0
	}
	r.bs = r.bs[n:]
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs)
	if err != nil {
		r.fail(err)
		return 0
	}
	r.bs = r.bs[n:]
	return v
}

// count reads a length prefix. Every counted item takes at least one byte,
// so a count above the remaining length is corrupt.
func (r *reader) count() int {
	v := r.uint64()
	if r.err == nil && v > uint64(len(r.bs)) {
		r.fail(fmt.Errorf("count %d exceeds %d remaining bytes", v, len(r.bs)))
		return 0
	}
	return int(v)
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs)
	if err != nil {
		r.fail(err)
		return ""
	}
	r.bs = r.bs[n:]
	return v
}
