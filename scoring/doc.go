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


// Package scoring implements the fuzzy term matcher used to rank results.
//
// A term is matched against a candidate string character by character, case
// and diacritic insensitively. Every occurrence of the term's first
// character (within the first MaximumItemCharactersScanned characters) is
// tried as a starting point. From each matched position the next term
// character is located by preferring, in order:
//
//  1. the immediately following candidate character,
//  2. the first later character that begins a word,
//  3. the first later character,
//
// each no further than MaximumCharacterDistance positions away. If no
// character qualifies the path is abandoned. The best scoring path wins.
//
// A path is scored as follows. Each matched character earns CharacterMatch,
// plus FirstCharacterInWord when it begins a word, plus Adjacency times its
// adjacency value. The adjacency value counts the matched characters
// immediately preceding it in a consecutive run: 1 for the second character
// of a run, 2 for the third and so on.
// WordPortion times matched/length of the word holding the longest
// consecutive run is added. The sum is then multiplied by three factors
// that are 1.0 in the ideal case and decay linearly toward their floor:
//
//	start distance  StartDistance + (1-StartDistance) * (1 - first/scanned)
//	item portion    ItemPortion + (1-ItemPortion) * termLen/scanned
//	match spread    MatchSpread + (1-MatchSpread) * termLen/span
//
// where span is last-first+1 over the matched positions. With the default
// factors a term compared with itself scores at least as high as any near
// miss of equal or greater length. A candidate like "SaFaRi" can beat
// "safari" against itself because each case transition adds a word start.
//
// Words are maximal runs of letters and digits; a lower to upper case
// transition starts a new word, so "iPhone" holds the words "i" and
// "Phone". Word ranges are cached per candidate string.
package scoring
