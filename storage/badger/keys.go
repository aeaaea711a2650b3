package badger

import (
	"encoding/binary"

	"github.com/poiesic/omnisearch/core"
)

// Key prefixes for different data types
const (
	resultCachePrefix = "rescache:"
	resultHashPrefix  = "reshash:"
	usagePrefix       = "usage:"
)

// makeResultCacheKey generates the key holding a source's cached results.
func makeResultCacheKey(sourceID string) []byte {
	return []byte(resultCachePrefix + sourceID)
}

// makeResultHashKey generates the key holding the content hash of a
// source's cached results.
func makeResultHashKey(sourceID string) []byte {
	return []byte(resultHashPrefix + sourceID)
}

// makeUsageKey generates the key holding an item's last-used date.
func makeUsageKey(identifier string) []byte {
	return []byte(usagePrefix + identifier)
}

func marshalHash(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

func unmarshalHash(data []byte) (core.ID, bool) {
	if len(data) != 8 {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(data)), true
}
