// Package similarity implements trigram similarity compatible with
// PostgreSQL's pg_trgm similarity() function.
package similarity

import (
	"strings"
	"unicode"
)

// Threshold is the minimum score, exclusive, for two strings to be
// considered a fuzzy match.
const Threshold = 0.3

// Score returns the trigram similarity of a and b in the range [0, 1].
//
// Each string is lowercased and split into words on non-alphanumeric
// characters. Every word is padded with two leading spaces and one trailing
// space before its trigrams are taken. The score is the number of shared
// trigrams divided by the size of the union.
func Score(a, b string) float64 {
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}

// Matches reports whether Score(a, b) is strictly above Threshold.
func Matches(a, b string) bool {
	return Score(a, b) > Threshold
}

func trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}
