// Package pgn derives board positions from the SAN movetext of a
// finished game, for archival on history records.
package pgn

import (
	"fmt"
	"strings"

	"gopkg.in/freeeve/pgn.v1"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Movetext renders a SAN move list as PGN movetext with move numbers.
func Movetext(sanMoves []string) string {
	var b strings.Builder
	for i, san := range sanMoves {
		if i%2 == 0 {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%d.", i/2+1)
		}
		b.WriteByte(' ')
		b.WriteString(san)
	}
	return b.String()
}

// FinalFEN replays a SAN move list and returns the resulting position.
func FinalFEN(sanMoves []string) (string, error) {
	if len(sanMoves) == 0 {
		return StartFEN, nil
	}
	fens, err := FENList(sanMoves)
	if err != nil {
		return "", err
	}
	return fens[len(fens)-1], nil
}

// FENList replays a SAN move list and returns the position after each move.
func FENList(sanMoves []string) ([]string, error) {
	r := strings.NewReader(Movetext(sanMoves) + " *\n")
	ps := pgn.NewPGNScanner(r)

	var fenList []string
	for ps.Next() {
		game, err := ps.Scan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan movetext: %w", err)
		}
		b := pgn.NewBoard()
		for _, move := range game.Moves {
			if err := b.MakeMove(move); err != nil {
				return nil, fmt.Errorf("failed to replay move: %w", err)
			}
			fenList = append(fenList, b.String())
		}
	}
	if len(fenList) != len(sanMoves) {
		return nil, fmt.Errorf("replayed %d of %d moves", len(fenList), len(sanMoves))
	}
	return fenList, nil
}
