package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/megattt-backend/internal/apperror"
	"github.com/rocketscienceinc/megattt-backend/internal/entity"
)

const (
	MarkerBoard    = "BOARD"
	MarkerEnd      = "END\n"
	MarkerYourTurn = "YOUR_TURN"
	MarkerInvalid  = "INVALID"
	MarkerGameOver = "GAME_OVER"

	spectatingSuffix = " (Spectating)"
)

// RenderBoard - formats the board frame sent to one player.
func RenderBoard(board *entity.Board, symbol entity.Symbol, spectating bool) string {
	var sb strings.Builder

	sb.WriteString(MarkerBoard + " " + symbol.String())
	if spectating {
		sb.WriteString(spectatingSuffix)
	}
	sb.WriteByte('\n')

	sb.WriteString("   ")
	for c := 0; c < entity.BoardSize; c++ {
		fmt.Fprintf(&sb, "%2d ", c)
	}
	sb.WriteByte('\n')

	for r := 0; r < entity.BoardSize; r++ {
		fmt.Fprintf(&sb, "%2d ", r)
		for c := 0; c < entity.BoardSize; c++ {
			sb.WriteByte('[')
			sb.WriteByte(byte(board[r][c]))
			sb.WriteByte(']')
		}
		sb.WriteByte('\n')
	}

	sb.WriteString(MarkerEnd)

	return sb.String()
}

func YourTurn() string {
	return MarkerYourTurn + "\n"
}

func Invalid() string {
	return MarkerInvalid + "\n"
}

// GameOver - winnerID 0 announces a draw.
func GameOver(winnerID int) string {
	return fmt.Sprintf("%s %d\n", MarkerGameOver, winnerID)
}

// ParseMove - reads "<row> <col>" from one client line. Trailing fields are
// ignored.
func ParseMove(line string) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("%w: %q", apperror.ErrMalformedMove, line)
	}

	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: row %q", apperror.ErrMalformedMove, fields[0])
	}

	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: col %q", apperror.ErrMalformedMove, fields[1])
	}

	return row, col, nil
}

func FormatMove(row, col int) string {
	return fmt.Sprintf("%d %d\n", row, col)
}
