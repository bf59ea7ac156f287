package analysis

import (
	"sort"
	"strings"
	"unicode"
)

// TrigramSet is a sorted, de-duplicated set of trigrams.
type TrigramSet []string

// Trigrams extracts trigrams the way pg_trgm does: the text is lowercased and split
// into alphanumeric words, each word is padded with two leading blanks and one
// trailing blank, and every three-rune window is collected.
func Trigrams(text string) TrigramSet {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	for _, w := range words {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			seen[string(padded[i:i+3])] = struct{}{}
		}
	}
	out := make(TrigramSet, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Similarity is |A∩B| / |A∪B| over the two trigram sets, in [0,1].
func (s TrigramSet) Similarity(o TrigramSet) float64 {
	if len(s) == 0 || len(o) == 0 {
		return 0
	}
	common := 0
	i, j := 0, 0
	for i < len(s) && j < len(o) {
		switch {
		case s[i] == o[j]:
			common++
			i++
			j++
		case s[i] < o[j]:
			i++
		default:
			j++
		}
	}
	return float64(common) / float64(len(s)+len(o)-common)
}

// Similarity returns the trigram similarity of two strings.
func Similarity(a, b string) float64 {
	return Trigrams(a).Similarity(Trigrams(b))
}
