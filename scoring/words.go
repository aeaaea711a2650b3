package scoring

import "unicode"

// WordRange marks one word within a candidate string, in rune offsets.
type WordRange struct {
	Start  int
	Length int
}

// End returns the offset one past the last rune of the word.
func (w WordRange) End() int { return w.Start + w.Length }

// computeWordRanges splits item into runs of letters and digits. A lower to
// upper case transition starts a new word.
func computeWordRanges(item []rune) []WordRange {
	var ranges []WordRange
	start := -1
	for i, r := range item {
		inWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case !inWord:
			if start >= 0 {
				ranges = append(ranges, WordRange{Start: start, Length: i - start})
				start = -1
			}
		case start < 0:
			start = i
		case unicode.IsUpper(r) && unicode.IsLower(item[i-1]):
			ranges = append(ranges, WordRange{Start: start, Length: i - start})
			start = i
		}
	}
	if start >= 0 {
		ranges = append(ranges, WordRange{Start: start, Length: len(item) - start})
	}
	return ranges
}

// wordIndex maps every rune offset to the word holding it, or -1.
func wordIndex(ranges []WordRange, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = -1
	}
	for w, r := range ranges {
		for i := r.Start; i < r.End() && i < n; i++ {
			idx[i] = w
		}
	}
	return idx
}
