// Package rating computes Elo rating deltas for finished games.
package rating

import "math"

// K is the Elo development coefficient applied to every game.
const K = 32

// Deltas are the rating adjustments for the two sides of a result,
// from the winner's perspective. For a draw the labels are arbitrary:
// the first delta belongs to whichever side is passed first.
type Deltas struct {
	Winner int
	Loser  int
}

func expected(r, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-r)/400))
}

// Decisive returns the deltas for a won game.
func Decisive(winnerElo, loserElo int) Deltas {
	return Deltas{
		Winner: int(math.Round(K * (1 - expected(winnerElo, loserElo)))),
		Loser:  int(math.Round(K * (0 - expected(loserElo, winnerElo)))),
	}
}

// Draw returns the deltas for a drawn game.
func Draw(aElo, bElo int) Deltas {
	return Deltas{
		Winner: int(math.Round(K * (0.5 - expected(aElo, bElo)))),
		Loser:  int(math.Round(K * (0.5 - expected(bElo, aElo)))),
	}
}
