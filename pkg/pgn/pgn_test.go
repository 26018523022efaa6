package pgn

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovetextNumbering(t *testing.T) {
	assert.Equal(t, "", Movetext(nil))
	assert.Equal(t, "1. e4", Movetext([]string{"e4"}))
	assert.Equal(t, "1. e4 e5 2. Nf3", Movetext([]string{"e4", "e5", "Nf3"}))
	assert.Equal(t, "1. e4 e5 2. Nf3 Nc6", Movetext([]string{"e4", "e5", "Nf3", "Nc6"}))
}

func TestFinalFENEmptyGame(t *testing.T) {
	fen, err := FinalFEN(nil)
	require.NoError(t, err)
	assert.Equal(t, StartFEN, fen)
}

func TestFinalFENAfterOpeningMove(t *testing.T) {
	fen, err := FinalFEN([]string{"e4"})
	require.NoError(t, err)

	fields := strings.Fields(fen)
	require.GreaterOrEqual(t, len(fields), 2)
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR", fields[0])
	assert.Equal(t, "b", fields[1])
}

func TestFENListReplaysEveryMove(t *testing.T) {
	fens, err := FENList([]string{"e4", "e5", "Nf3", "Nc6"})
	require.NoError(t, err)
	require.Len(t, fens, 4)

	assert.True(t, strings.HasPrefix(fens[0], "rnbqkbnr/pppppppp/8/8/4P3/"))
	// Positions accumulate: the knight development shows in the last FEN.
	assert.Contains(t, fens[3], "2n5")
}

func TestFENListRejectsIllegalMove(t *testing.T) {
	_, err := FENList([]string{"Qh5"})
	assert.Error(t, err)
}
