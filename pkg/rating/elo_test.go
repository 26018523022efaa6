package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecisiveEqualRatings(t *testing.T) {
	deltas := Decisive(500, 500)
	assert.Equal(t, 16, deltas.Winner)
	assert.Equal(t, -16, deltas.Loser)
}

func TestDecisiveUnderdogWin(t *testing.T) {
	deltas := Decisive(400, 600)
	assert.Equal(t, 24, deltas.Winner)
	assert.Equal(t, -24, deltas.Loser)
}

func TestDecisiveFavoriteWin(t *testing.T) {
	deltas := Decisive(600, 400)
	assert.Equal(t, 8, deltas.Winner)
	assert.Equal(t, -8, deltas.Loser)
}

func TestDrawEqualRatings(t *testing.T) {
	deltas := Draw(500, 500)
	assert.Equal(t, 0, deltas.Winner)
	assert.Equal(t, 0, deltas.Loser)
}

func TestDrawUnequalRatings(t *testing.T) {
	deltas := Draw(400, 600)
	assert.Equal(t, 8, deltas.Winner, "lower-rated side gains on a draw")
	assert.Equal(t, -8, deltas.Loser)
}

func TestDeltasAreZeroSumByConstruction(t *testing.T) {
	for _, pair := range [][2]int{{500, 500}, {450, 530}, {300, 700}} {
		deltas := Decisive(pair[0], pair[1])
		assert.Equal(t, 0, deltas.Winner+deltas.Loser, "ratings %v", pair)
	}
}
