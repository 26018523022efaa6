package server

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkmate-live/checkmate/internal/domains/entities"
)

func playMoves(t *testing.T, g *game, sans ...string) {
	t.Helper()
	for _, san := range sans {
		_, err := g.applyLenient(san)
		require.NoError(t, err, "move %q", san)
	}
}

func TestApplyLenientAcceptsSANAndUCI(t *testing.T) {
	g := newGame()
	_, err := g.applyLenient("e4")
	require.NoError(t, err)
	_, err = g.applyLenient("e7e5")
	require.NoError(t, err)
	assert.Equal(t, "w", g.turn())

	_, err = g.applyLenient("nonsense")
	assert.Error(t, err)
}

func TestOccupancyInitialPosition(t *testing.T) {
	occ := newGame().occupancy()

	assert.Len(t, occ, 32)
	assert.Equal(t, "a8", occ["bR1"])
	assert.Equal(t, "h8", occ["bR2"])
	assert.Equal(t, "a7", occ["bP1"])
	assert.Equal(t, "e1", occ["wK1"])
	assert.Equal(t, "a1", occ["wR1"])
	assert.Equal(t, "h1", occ["wR2"])
	assert.Equal(t, "h2", occ["wP8"])
}

func TestHighlightColors(t *testing.T) {
	g := newGame()
	move, err := g.applyLenient("e4")
	require.NoError(t, err)
	assert.Equal(t, highlightQuiet, highlightFor(move))

	playMoves(t, g, "d5")
	move, err = g.applyLenient("exd5")
	require.NoError(t, err)
	assert.Equal(t, highlightCapture, highlightFor(move))
}

func TestHighlightEnPassant(t *testing.T) {
	g := newGame()
	playMoves(t, g, "e4", "a6", "e5", "d5")
	move, err := g.applyLenient("exd6")
	require.NoError(t, err)
	assert.Equal(t, highlightEnPassant, highlightFor(move))
}

func TestHighlightCastle(t *testing.T) {
	g := newGame()
	playMoves(t, g, "e4", "e5", "Nf3", "Nc6", "Bc4", "Bc5")
	move, err := g.applyLenient("O-O")
	require.NoError(t, err)
	assert.Equal(t, highlightCastle, highlightFor(move))
}

func TestHighlightPromotion(t *testing.T) {
	fen, err := chess.FEN("8/P6k/8/8/8/8/8/K7 w - - 0 1")
	require.NoError(t, err)
	g := &game{Game: *chess.NewGame(fen)}

	move, err := g.applyLenient("a8=Q")
	require.NoError(t, err)
	assert.Equal(t, highlightPromotion, highlightFor(move))
}

func TestCapturedPiecesTally(t *testing.T) {
	g := newGame()
	playMoves(t, g, "e4", "d5", "exd5", "Qxd5")

	capturedWhite, capturedBlack := g.capturedPieces()
	assert.Equal(t, []string{"P"}, capturedWhite, "white lost the e-pawn")
	assert.Equal(t, []string{"P"}, capturedBlack, "black lost the d-pawn")
}

func TestCapturedPiecesEnPassant(t *testing.T) {
	g := newGame()
	playMoves(t, g, "e4", "a6", "e5", "d5", "exd6")

	capturedWhite, capturedBlack := g.capturedPieces()
	assert.Empty(t, capturedWhite)
	assert.Equal(t, []string{"P"}, capturedBlack)
}

func TestTerminalResultCheckmate(t *testing.T) {
	g := newGame()
	playMoves(t, g, "f3", "e5", "g4", "Qh4")

	result, over := g.terminalResult(chess.Black)
	require.True(t, over)
	assert.Equal(t, resultBlackWin, result)
}

func TestTerminalResultStalemate(t *testing.T) {
	fen, err := chess.FEN("k7/8/1K6/8/8/8/8/2Q5 w - - 0 1")
	require.NoError(t, err)
	g := &game{Game: *chess.NewGame(fen)}
	playMoves(t, g, "Qc7")

	result, over := g.terminalResult(chess.White)
	require.True(t, over)
	assert.Equal(t, resultStalemate, result)
}

func TestTerminalResultOngoingGame(t *testing.T) {
	g := newGame()
	playMoves(t, g, "e4")

	_, over := g.terminalResult(chess.White)
	assert.False(t, over)
}

func TestReplayGameRebuildsPosition(t *testing.T) {
	g := newGame()
	playMoves(t, g, "e4", "e5", "Nf3")
	g.moves = []entities.MoveRecord{
		{San: "e4", ClockMs: 1000},
		{San: "e5", ClockMs: 2000},
		{San: "Nf3", ClockMs: 3000},
	}

	replayed, err := replayGame(g.moves)
	require.NoError(t, err)
	assert.Equal(t, g.FEN(), replayed.FEN())
	assert.Equal(t, g.moves, replayed.moves)

	_, err = replayGame([]entities.MoveRecord{{San: "Qh5"}})
	assert.Error(t, err)
}
