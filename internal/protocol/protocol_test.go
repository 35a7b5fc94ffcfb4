package protocol

import (
	"strings"
	"testing"

	"github.com/rocketscienceinc/megattt-backend/internal/apperror"
	"github.com/rocketscienceinc/megattt-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBoard(t *testing.T) {
	board := entity.NewBoard()
	board[0][0] = 'X'
	board[11][11] = 'O'

	t.Run("Player view", func(t *testing.T) {
		// When: rendering for the active player
		text := RenderBoard(&board, 'X', false)
		lines := strings.Split(text, "\n")

		// Then: header, ruler, twelve rows and the END marker
		require.Len(t, lines, entity.BoardSize+4)
		assert.Equal(t, "BOARD X", lines[0])
		assert.Equal(t, "    0  1  2  3  4  5  6  7  8  9 10 11 ", lines[1])
		assert.Equal(t, " 0 [X][ ][ ][ ][ ][ ][ ][ ][ ][ ][ ][ ]", lines[2])
		assert.Equal(t, "11 [ ][ ][ ][ ][ ][ ][ ][ ][ ][ ][ ][O]", lines[13])
		assert.Equal(t, "END", lines[14])
		assert.True(t, strings.HasSuffix(text, MarkerEnd))
	})

	t.Run("Spectator view", func(t *testing.T) {
		text := RenderBoard(&board, 'A', true)

		assert.True(t, strings.HasPrefix(text, "BOARD A (Spectating)\n"))
	})
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "YOUR_TURN\n", YourTurn())
	assert.Equal(t, "INVALID\n", Invalid())
	assert.Equal(t, "GAME_OVER 0\n", GameOver(0))
	assert.Equal(t, "GAME_OVER 3\n", GameOver(3))
	assert.Equal(t, "4 11\n", FormatMove(4, 11))
}

func TestParseMove(t *testing.T) {
	t.Run("Two integers", func(t *testing.T) {
		row, col, err := ParseMove("5 7\n")

		require.NoError(t, err)
		assert.Equal(t, 5, row)
		assert.Equal(t, 7, col)
	})

	t.Run("Out of range values still parse", func(t *testing.T) {
		row, col, err := ParseMove("20 -3")

		require.NoError(t, err)
		assert.Equal(t, 20, row)
		assert.Equal(t, -3, col)
	})

	t.Run("Extra fields are ignored", func(t *testing.T) {
		row, col, err := ParseMove("  1\t2 please\r\n")

		require.NoError(t, err)
		assert.Equal(t, 1, row)
		assert.Equal(t, 2, col)
	})

	t.Run("Malformed input", func(t *testing.T) {
		for _, line := range []string{"", "\n", "5", "a b", "5 x", "x 5"} {
			_, _, err := ParseMove(line)
			assert.ErrorIs(t, err, apperror.ErrMalformedMove, "line %q", line)
		}
	})
}
