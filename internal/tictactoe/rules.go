package tictactoe

import (
	"github.com/rocketscienceinc/megattt-backend/internal/apperror"
	"github.com/rocketscienceinc/megattt-backend/internal/entity"
)

// axes are the four line directions through a cell: horizontal, vertical,
// diagonal and anti-diagonal. The opposite direction is walked by negation.
var axes = [4][2]int{
	{0, 1},
	{1, 0},
	{1, 1},
	{1, -1},
}

// ValidateMove - checks that the cell exists and is still empty.
func ValidateMove(board *entity.Board, row, col int) error {
	if !board.InBounds(row, col) {
		return apperror.ErrOutOfBounds
	}

	if !board.IsEmpty(row, col) {
		return apperror.ErrCellOccupied
	}

	return nil
}

// Wins - reports whether the symbol at (row, col) completes a line of
// entity.WinCount or more along any single axis.
func Wins(board *entity.Board, row, col int, symbol entity.Symbol) bool {
	for _, axis := range axes {
		dr, dc := axis[0], axis[1]

		count := 1 + countRun(board, row, col, dr, dc, symbol) + countRun(board, row, col, -dr, -dc, symbol)
		if count >= entity.WinCount {
			return true
		}
	}

	return false
}

// countRun - counts contiguous symbols starting next to (row, col) in one direction.
func countRun(board *entity.Board, row, col, dr, dc int, symbol entity.Symbol) int {
	count := 0

	for i := 1; i < entity.WinCount; i++ {
		r, c := row+i*dr, col+i*dc
		if !board.InBounds(r, c) || board[r][c] != symbol {
			break
		}
		count++
	}

	return count
}

// IsBoardFull - a board is full once every cell received a move.
func IsBoardFull(turnCount int) bool {
	return turnCount >= entity.BoardSize*entity.BoardSize
}
