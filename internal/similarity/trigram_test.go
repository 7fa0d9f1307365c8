package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreIdentical(t *testing.T) {
	assert.InDelta(t, 1.0, Score("CeraVe", "cerave"), 1e-9)
}

func TestScoreDisjoint(t *testing.T) {
	assert.Zero(t, Score("abc", "xyz"))
}

func TestScoreEmpty(t *testing.T) {
	assert.Zero(t, Score("", "abc"))
	assert.Zero(t, Score("!!", "abc"))
}

func TestScoreKnownValues(t *testing.T) {
	// "abc" -> {"  a"," ab","abc","bc "}; "abcdef" has 7 trigrams, 3 shared.
	assert.InDelta(t, 3.0/8.0, Score("abc", "abcdef"), 1e-9)
	assert.InDelta(t, 1.0/3.0, Score("abc", "abcdefg"), 1e-9)
}

func TestMatchesThresholdIsExclusive(t *testing.T) {
	// "abcdefgh" has 9 trigrams: 3 / (4+9-3) == 0.3 exactly.
	assert.Equal(t, 0.3, Score("abc", "abcdefgh"))
	assert.False(t, Matches("abc", "abcdefgh"))

	assert.True(t, Matches("abc", "abcdefg"))
}

func TestScoreIgnoresPunctuationAndCase(t *testing.T) {
	assert.InDelta(t, 1.0, Score("La Roche-Posay", "la roche posay"), 1e-9)
}

func TestScoreTypoStillMatches(t *testing.T) {
	assert.True(t, Matches("Moisturizing Cream", "Moisturising Cream"))
	assert.False(t, Matches("Moisturizing Cream", "Lipstick"))
}
