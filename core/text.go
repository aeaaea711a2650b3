package core

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Characters trimmed from both ends of every query word.
const wordPunctuation = ".,!?;:'\"-()[]{}"

// newDiacriticStripper builds a fresh transformer. Transformers carry state,
// so one is built per call rather than shared between goroutines.
func newDiacriticStripper() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// NormalizeString lower-cases s and strips diacritical marks.
func NormalizeString(s string) string {
	stripped, _, err := transform.String(newDiacriticStripper(), s)
	if err != nil {
		stripped = s
	}
	return strings.ToLower(stripped)
}

// FoldRune maps r to its lower-case base character, dropping any combining
// marks, so "É" and "e" compare equal. A rune always folds to exactly one
// rune, which keeps positions in the folded and original strings aligned.
func FoldRune(r rune) rune {
	if r < utf8.RuneSelf {
		return unicode.ToLower(r)
	}
	decomposed := norm.NFD.String(string(r))
	base, _ := utf8.DecodeRuneInString(decomposed)
	if base == utf8.RuneError {
		base = r
	}
	return unicode.ToLower(base)
}

// Tokenize splits raw query text into unique normalized words, in the order
// they first appear. Surrounding punctuation is trimmed from every word.
func Tokenize(raw string) []string {
	fields := strings.Fields(raw)
	words := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))

	for _, field := range fields {
		word := NormalizeString(strings.Trim(field, wordPunctuation))
		if word == "" || seen[word] {
			continue
		}
		seen[word] = true
		words = append(words, word)
	}

	return words
}
