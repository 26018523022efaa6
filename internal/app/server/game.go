package server

import (
	"strconv"

	"github.com/notnil/chess"

	"github.com/checkmate-live/checkmate/internal/domains/entities"
)

// Move-highlight colors keyed by move category.
const (
	highlightQuiet     = "#f6f669"
	highlightCapture   = "#ff9999"
	highlightEnPassant = "#ffa500"
	highlightPromotion = "#99ff99"
	highlightCastle    = "#ccccff"
)

// Result tags. Everything except the two wins settles as a draw.
const (
	resultWhiteWin             = "white_win"
	resultBlackWin             = "black_win"
	resultStalemate            = "stalemate"
	resultThreefold            = "threefold_repetition"
	resultFiftyMove            = "fifty_move_rule"
	resultInsufficientMaterial = "insufficient_material"
	resultDraw                 = "draw"
)

type game struct {
	chess.Game
	moves []entities.MoveRecord
}

func newGame() *game {
	return &game{
		Game: *chess.NewGame(),
	}
}

// replayGame rebuilds a position from a stored move log. Pure: the
// returned game carries no side effects beyond the replayed moves.
func replayGame(moves []entities.MoveRecord) (*game, error) {
	g := newGame()
	for _, record := range moves {
		if _, err := g.applyLenient(record.San); err != nil {
			return nil, err
		}
		g.moves = append(g.moves, record)
	}
	return g, nil
}

// applyLenient decodes SAN first and falls back to UCI, matching the
// sloppy notation accepted from clients and stored in move logs.
func (g *game) applyLenient(moveText string) (*chess.Move, error) {
	pos := g.Position()
	move, err := chess.AlgebraicNotation{}.Decode(pos, moveText)
	if err != nil {
		move, err = chess.UCINotation{}.Decode(pos, moveText)
		if err != nil {
			return nil, err
		}
	}
	if err := g.Move(move); err != nil {
		return nil, err
	}
	return move, nil
}

func (g *game) turn() string {
	if g.Position().Turn() == chess.White {
		return "w"
	}
	return "b"
}

func pieceLetter(t chess.PieceType) string {
	switch t {
	case chess.King:
		return "K"
	case chess.Queen:
		return "Q"
	case chess.Rook:
		return "R"
	case chess.Bishop:
		return "B"
	case chess.Knight:
		return "N"
	default:
		return "P"
	}
}

// occupancy derives the per-square piece map clients render from, keyed
// like "wR1" -> "a1". Counters restart on every rebuild, scanning from
// the eighth rank down.
func (g *game) occupancy() map[string]string {
	positions := make(map[string]string)
	board := g.Position().Board()
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			sq := chess.Square(rank*8 + file)
			piece := board.Piece(sq)
			if piece == chess.NoPiece {
				continue
			}
			prefix := "w"
			if piece.Color() == chess.Black {
				prefix = "b"
			}
			prefix += pieceLetter(piece.Type())
			counter := 1
			key := prefix + strconv.Itoa(counter)
			for positions[key] != "" {
				counter++
				key = prefix + strconv.Itoa(counter)
			}
			positions[key] = sq.String()
		}
	}
	return positions
}

// capturedPieces tallies material lost by each side, derived by walking
// the game's move history.
func (g *game) capturedPieces() (capturedWhite, capturedBlack []string) {
	moves := g.Moves()
	positions := g.Positions()
	for i, move := range moves {
		if !move.HasTag(chess.Capture) && !move.HasTag(chess.EnPassant) {
			continue
		}
		before := positions[i]
		letter := "P"
		if !move.HasTag(chess.EnPassant) {
			letter = pieceLetter(before.Board().Piece(move.S2()).Type())
		}
		if before.Turn() == chess.White {
			capturedBlack = append(capturedBlack, letter)
		} else {
			capturedWhite = append(capturedWhite, letter)
		}
	}
	return capturedWhite, capturedBlack
}

func highlightFor(move *chess.Move) string {
	switch {
	case move.HasTag(chess.EnPassant):
		return highlightEnPassant
	case move.HasTag(chess.Capture):
		return highlightCapture
	case move.Promo() != chess.NoPieceType:
		return highlightPromotion
	case move.HasTag(chess.KingSideCastle), move.HasTag(chess.QueenSideCastle):
		return highlightCastle
	default:
		return highlightQuiet
	}
}

// terminalResult evaluates end conditions in fixed priority order:
// checkmate, stalemate, threefold repetition, fifty-move rule,
// insufficient material, then any remaining drawn outcome.
func (g *game) terminalResult(mover chess.Color) (string, bool) {
	switch g.Method() {
	case chess.Checkmate:
		if mover == chess.White {
			return resultWhiteWin, true
		}
		return resultBlackWin, true
	case chess.Stalemate:
		return resultStalemate, true
	case chess.FivefoldRepetition:
		return resultThreefold, true
	case chess.SeventyFiveMoveRule:
		return resultFiftyMove, true
	case chess.InsufficientMaterial:
		return resultInsufficientMaterial, true
	}
	for _, method := range g.EligibleDraws() {
		if method == chess.ThreefoldRepetition {
			g.Draw(method)
			return resultThreefold, true
		}
	}
	for _, method := range g.EligibleDraws() {
		if method == chess.FiftyMoveRule {
			g.Draw(method)
			return resultFiftyMove, true
		}
	}
	if g.Outcome() == chess.Draw {
		return resultDraw, true
	}
	return "", false
}

func (g *game) sanMoves() []string {
	sans := make([]string, len(g.moves))
	for i, record := range g.moves {
		sans[i] = record.San
	}
	return sans
}
