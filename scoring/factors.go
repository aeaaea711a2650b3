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


package scoring

import (
	"fmt"
	"sync/atomic"
)

// HardMaximumItemCharactersScanned bounds scanning whatever the configuration.
const HardMaximumItemCharactersScanned = 250

// Factors weight the components of a match score.
type Factors struct {
	// CharacterMatch is awarded for every matched character. Default 1.0.
	CharacterMatch float64 `yaml:"character_match"`
	// FirstCharacterInWord is awarded when a matched character begins a
	// word. Default 3.0.
	FirstCharacterInWord float64 `yaml:"first_character_in_word"`
	// Adjacency is multiplied by a character's adjacency value. Default 3.8.
	Adjacency float64 `yaml:"adjacency"`
	// StartDistance is the floor of the start distance multiplier.
	// Default 0.8.
	StartDistance float64 `yaml:"start_distance"`
	// WordPortion is multiplied by the best word portion. Default 5.0.
	WordPortion float64 `yaml:"word_portion"`
	// ItemPortion is the floor of the item portion multiplier. Default 0.8.
	ItemPortion float64 `yaml:"item_portion"`
	// MatchSpread is the floor of the match spread multiplier. Default 0.8.
	MatchSpread float64 `yaml:"match_spread"`
	// OtherTermMultiplier scales scores against alternate strings.
	// Default 0.5.
	OtherTermMultiplier float64 `yaml:"other_term_multiplier"`
	// MaximumCharacterDistance is the widest gap allowed between two
	// matched characters. Default 22.
	MaximumCharacterDistance int `yaml:"maximum_character_distance"`
	// MaximumItemCharactersScanned limits how much of a candidate is
	// examined. Default 250, never more than
	// HardMaximumItemCharactersScanned.
	MaximumItemCharactersScanned int `yaml:"maximum_item_characters_scanned"`
}

// DefaultFactors returns the default weighting.
func DefaultFactors() Factors {
	return Factors{
		CharacterMatch:               1.0,
		FirstCharacterInWord:         3.0,
		Adjacency:                    3.8,
		StartDistance:                0.8,
		WordPortion:                  5.0,
		ItemPortion:                  0.8,
		MatchSpread:                  0.8,
		OtherTermMultiplier:          0.5,
		MaximumCharacterDistance:     22,
		MaximumItemCharactersScanned: 250,
	}
}

type namedFactor struct {
	name  string
	value float64
}

// Validate checks that every factor is in range.
func (f Factors) Validate() error {
	for _, nf := range []namedFactor{
		{"character match", f.CharacterMatch},
		{"first character in word", f.FirstCharacterInWord},
		{"adjacency", f.Adjacency},
		{"word portion", f.WordPortion},
		{"other term multiplier", f.OtherTermMultiplier},
	} {
		if nf.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidFactors, nf.name, nf.value)
		}
	}

	for _, nf := range []namedFactor{
		{"start distance", f.StartDistance},
		{"item portion", f.ItemPortion},
		{"match spread", f.MatchSpread},
	} {
		if nf.value < 0 || nf.value > 1 {
			return fmt.Errorf("%w: %s must be within [0,1], got %v", ErrInvalidFactors, nf.name, nf.value)
		}
	}

	if f.MaximumCharacterDistance < 1 {
		return fmt.Errorf("%w: maximum character distance must be positive", ErrInvalidFactors)
	}
	if f.MaximumItemCharactersScanned < 1 {
		return fmt.Errorf("%w: maximum item characters scanned must be positive", ErrInvalidFactors)
	}
	return nil
}

func (f Factors) scanLimit() int {
	return min(f.MaximumItemCharactersScanned, HardMaximumItemCharactersScanned)
}

var defaultScorer atomic.Pointer[Scorer]

func init() {
	s, err := NewScorer(DefaultFactors())
	if err != nil {
		panic(err)
	}
	defaultScorer.Store(s)
}

// SetFactors replaces the factors used by the package level functions. It
// is meant to be called once at startup.
func SetFactors(f Factors) error {
	s, err := NewScorer(f)
	if err != nil {
		return err
	}
	defaultScorer.Store(s)
	return nil
}

// CurrentFactors returns the factors used by the package level functions.
func CurrentFactors() Factors {
	return defaultScorer.Load().Factors()
}

// Default returns the scorer used by the package level functions.
func Default() *Scorer {
	return defaultScorer.Load()
}
