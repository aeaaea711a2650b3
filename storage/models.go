package storage

import (
	"time"

	"github.com/poiesic/omnisearch/core"
)

// CachedResult is the persisted form of an indexed result. Only string
// valued attributes survive a round trip.
type CachedResult struct {
	URI        string
	Name       string
	Type       string
	Identifier string
	Rank       float64
	RankFlags  core.RankFlags
	LastUsed   time.Time
	Terms      []string
	Attributes map[string]string
}

// FromResult converts r for caching. terms are the extra strings the result
// was indexed under.
func FromResult(r *core.Result, terms []string) CachedResult {
	cr := CachedResult{
		URI:        r.URI(),
		Name:       r.DisplayName(),
		Type:       r.Type(),
		Identifier: r.NormalizedIdentifier(),
		Rank:       r.Rank(),
		RankFlags:  r.RankFlags(),
		LastUsed:   r.LastUsed(),
		Terms:      terms,
	}
	for k, v := range r.Attributes() {
		if s, ok := v.(string); ok {
			if cr.Attributes == nil {
				cr.Attributes = make(map[string]string)
			}
			cr.Attributes[k] = s
		}
	}
	return cr
}

// ToResult rebuilds the result on behalf of source.
func (cr CachedResult) ToResult(source core.Extension) (*core.Result, error) {
	attrs := make(core.Attributes, len(cr.Attributes)+4)
	for k, v := range cr.Attributes {
		attrs[k] = v
	}
	attrs[core.AttrRank] = cr.Rank
	if cr.Identifier != "" {
		attrs[core.AttrNormalizedIdentifier] = cr.Identifier
	}
	attrs[core.AttrRankFlags] = cr.RankFlags
	if !cr.LastUsed.IsZero() {
		attrs[core.AttrLastUsedDate] = cr.LastUsed
	}
	return core.NewResult(cr.URI, cr.Name, cr.Type, source, attrs)
}
