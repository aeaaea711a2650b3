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
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/omnisearch/core"
)

const defaultWordCacheSize = 4096

// Scorer scores terms against candidate strings. It is safe for concurrent
// use.
type Scorer struct {
	factors       Factors
	wordCacheSize int
	wordCache     *lru.Cache[string, []WordRange]
}

// Option configures a Scorer.
type Option func(*Scorer) error

// WithWordCacheSize sets how many candidate strings keep their word ranges
// cached.
func WithWordCacheSize(n int) Option {
	return func(s *Scorer) error {
		if n < 1 {
			return fmt.Errorf("word cache size must be positive, got %d", n)
		}
		s.wordCacheSize = n
		return nil
	}
}

// NewScorer creates a Scorer using f.
func NewScorer(f Factors, opts ...Option) (*Scorer, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	s := &Scorer{
		factors:       f,
		wordCacheSize: defaultWordCacheSize,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	cache, err := lru.New[string, []WordRange](s.wordCacheSize)
	if err != nil {
		return nil, err
	}
	s.wordCache = cache
	return s, nil
}

// Factors returns the scorer's weighting.
func (s *Scorer) Factors() Factors { return s.factors }

// candidate is a string prepared for matching.
type candidate struct {
	folded []rune
	words  []WordRange
	wordOf []int
}

func (c candidate) isWordStart(pos int) bool {
	w := c.wordOf[pos]
	return w >= 0 && c.words[w].Start == pos
}

func (s *Scorer) truncate(item string) []rune {
	runes := []rune(item)
	if limit := s.factors.scanLimit(); len(runes) > limit {
		runes = runes[:limit]
	}
	return runes
}

func (s *Scorer) wordRanges(runes []rune) []WordRange {
	key := string(runes)
	if ranges, ok := s.wordCache.Get(key); ok {
		return ranges
	}
	ranges := computeWordRanges(runes)
	s.wordCache.Add(key, ranges)
	return ranges
}

// WordRanges returns the words of item within the scanned prefix.
func (s *Scorer) WordRanges(item string) []WordRange {
	return slices.Clone(s.wordRanges(s.truncate(item)))
}

func (s *Scorer) prepare(item string) candidate {
	runes := s.truncate(item)
	words := s.wordRanges(runes)
	return candidate{
		folded: foldRunes(runes),
		words:  words,
		wordOf: wordIndex(words, len(runes)),
	}
}

func foldRunes(runes []rune) []rune {
	out := make([]rune, len(runes))
	for i, r := range runes {
		out[i] = core.FoldRune(r)
	}
	return out
}

// ScoreTerm scores how well a single word matches item. Zero means no
// match. Scores are unbounded; use RelativeScore for a value in [0,1].
func (s *Scorer) ScoreTerm(term, item string) float64 {
	return s.scoreTerm(foldRunes([]rune(term)), s.prepare(item), nil)
}

// ScoreTermDetails is ScoreTerm that also reports how every candidate path
// was scored.
func (s *Scorer) ScoreTermDetails(term, item string) (float64, TermDetails) {
	details := TermDetails{Term: term}
	score := s.scoreTerm(foldRunes([]rune(term)), s.prepare(item), &details)
	details.BestScore = score
	return score, details
}

// ScoreTerms scores each term against item.
func (s *Scorer) ScoreTerms(terms []string, item string) []float64 {
	c := s.prepare(item)
	scores := make([]float64, len(terms))
	for i, term := range terms {
		scores[i] = s.scoreTerm(foldRunes([]rune(term)), c, nil)
	}
	return scores
}

// Score scores every term against main and the alternates. A term's score
// against an alternate is multiplied by OtherTermMultiplier and replaces the
// main score only when larger. Every term has to match somewhere or the
// result is zero; otherwise the term scores are summed.
func (s *Scorer) Score(terms []string, main string, alternates ...string) float64 {
	if len(terms) == 0 {
		return 0
	}
	mainScores := s.ScoreTerms(terms, main)
	for _, alt := range alternates {
		for i, v := range s.ScoreTerms(terms, alt) {
			if v *= s.factors.OtherTermMultiplier; v > mainScores[i] {
				mainScores[i] = v
			}
		}
	}

	total := 0.0
	for _, v := range mainScores {
		if v <= 0 {
			return 0
		}
		total += v
	}
	return total
}

// SelfScore is the score of every term matched against itself. A candidate
// whose case transitions add word starts inside a run can score higher, so
// RelativeScore clamps.
func (s *Scorer) SelfScore(terms []string) float64 {
	total := 0.0
	for _, term := range terms {
		total += s.ScoreTerm(term, term)
	}
	return total
}

// RelativeScore is Score divided by SelfScore, in [0,1].
func (s *Scorer) RelativeScore(terms []string, main string, alternates ...string) float64 {
	self := s.SelfScore(terms)
	if self <= 0 {
		return 0
	}
	return min(s.Score(terms, main, alternates...)/self, 1)
}

func (s *Scorer) scoreTerm(term []rune, c candidate, details *TermDetails) float64 {
	if len(term) == 0 || len(term) > len(c.folded) {
		return 0
	}
	best := 0.0
	for start, r := range c.folded {
		if r != term[0] {
			continue
		}
		positions, ok := s.walk(term, c, start)
		if !ok {
			continue
		}
		match := s.scorePath(c, positions, details != nil)
		if details != nil {
			details.Matches = append(details.Matches, match)
		}
		if match.Score > best {
			best = match.Score
		}
	}
	return best
}

// walk finds positions for every term character after the first, starting
// at start. It fails when a character cannot be found within
// MaximumCharacterDistance of the previous match.
func (s *Scorer) walk(term []rune, c candidate, start int) ([]int, bool) {
	positions := make([]int, len(term))
	positions[0] = start
	last := len(c.folded) - 1

	for i := 1; i < len(term); i++ {
		prev := positions[i-1]
		limit := min(last, prev+s.factors.MaximumCharacterDistance)
		if prev+1 > limit {
			return nil, false
		}
		if c.folded[prev+1] == term[i] {
			positions[i] = prev + 1
			continue
		}

		firstAny := -1
		picked := -1
		for q := prev + 2; q <= limit; q++ {
			if c.folded[q] != term[i] {
				continue
			}
			if firstAny < 0 {
				firstAny = q
			}
			if c.isWordStart(q) {
				picked = q
				break
			}
		}
		if picked < 0 {
			picked = firstAny
		}
		if picked < 0 {
			return nil, false
		}
		positions[i] = picked
	}
	return positions, true
}

func (s *Scorer) scorePath(c candidate, positions []int, withChars bool) MatchDetail {
	f := s.factors
	var match MatchDetail
	if withChars {
		match.Characters = make([]CharacterDetail, 0, len(positions))
	}

	sum := 0.0
	adjacency := 0
	for i, p := range positions {
		if i > 0 && p == positions[i-1]+1 {
			adjacency++
		} else {
			adjacency = 0
		}
		firstInWord := c.isWordStart(p)
		fcs := 0.0
		if firstInWord {
			fcs = f.FirstCharacterInWord
		}
		ads := float64(adjacency) * f.Adjacency
		partial := f.CharacterMatch + fcs + ads
		sum += partial
		if withChars {
			match.Characters = append(match.Characters, CharacterDetail{
				Position:         p,
				Score:            partial,
				FirstInWord:      firstInWord,
				Adjacency:        adjacency,
				FirstInWordScore: fcs,
				AdjacencyScore:   ads,
			})
		}
	}

	bestRun, bestWordLen, run := 0, 0, 0
	for i, p := range positions {
		w := c.wordOf[p]
		switch {
		case w < 0:
			run = 0
			continue
		case i > 0 && p == positions[i-1]+1 && c.wordOf[positions[i-1]] == w:
			run++
		default:
			run = 1
		}
		wordLen := c.words[w].Length
		if run > bestRun || (run == bestRun && wordLen < bestWordLen) {
			bestRun, bestWordLen = run, wordLen
		}
	}
	wordPortion := 0.0
	if bestWordLen > 0 {
		wordPortion = float64(bestRun) / float64(bestWordLen)
	}
	sum += f.WordPortion * wordPortion

	n := float64(len(c.folded))
	termLen := float64(len(positions))
	first, last := positions[0], positions[len(positions)-1]
	startDistance := f.StartDistance + (1-f.StartDistance)*(1-float64(first)/n)
	itemPortion := f.ItemPortion + (1-f.ItemPortion)*termLen/n
	spread := f.MatchSpread + (1-f.MatchSpread)*termLen/float64(last-first+1)

	match.Score = sum * startDistance * itemPortion * spread
	match.StartDistance = first
	match.StartDistanceMultiplier = startDistance
	match.BestWordMatchLength = bestRun
	match.BestWordLength = bestWordLen
	match.WordPortionScore = f.WordPortion * wordPortion
	match.ItemPortionMultiplier = itemPortion
	match.SpreadMultiplier = spread
	return match
}

// ScoreTerm scores term against item with the default scorer.
func ScoreTerm(term, item string) float64 {
	return Default().ScoreTerm(term, item)
}

// ScoreTermDetails scores term against item with the default scorer and
// reports the details.
func ScoreTermDetails(term, item string) (float64, TermDetails) {
	return Default().ScoreTermDetails(term, item)
}

// ScoreTerms scores each term against item with the default scorer.
func ScoreTerms(terms []string, item string) []float64 {
	return Default().ScoreTerms(terms, item)
}

// Score scores terms against main and alternates with the default scorer.
func Score(terms []string, main string, alternates ...string) float64 {
	return Default().Score(terms, main, alternates...)
}

// RelativeScore is Score normalized to [0,1] with the default scorer.
func RelativeScore(terms []string, main string, alternates ...string) float64 {
	return Default().RelativeScore(terms, main, alternates...)
}

// WordRanges returns the words of item using the default scorer's cache.
func WordRanges(item string) []WordRange {
	return Default().WordRanges(item)
}
