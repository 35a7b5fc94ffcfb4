package entity

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/megattt-backend/internal/apperror"
)

const (
	BoardSize = 12
	WinCount  = 5

	MinPlayers = 3
	MaxPlayers = 5

	EmptyCell Symbol = ' '

	// NoWinner is the winner id of a game still in progress or ended in a draw.
	NoWinner = 0
)

// Symbol is the mark a player places on the board.
type Symbol byte

func (that Symbol) String() string {
	return string(that)
}

func (that Symbol) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(that))
}

func (that *Symbol) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("failed to unmarshal symbol: %w", err)
	}

	if len(value) != 1 {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidSymbol, value)
	}

	*that = Symbol(value[0])

	return nil
}

// Symbols are handed out to players in connection order.
var Symbols = [MaxPlayers]Symbol{'X', 'O', 'A', 'B', 'C'}

// Board is the shared grid, indexed as Board[row][col].
type Board [BoardSize][BoardSize]Symbol

func NewBoard() Board {
	var board Board
	board.Clear()

	return board
}

func (that *Board) Clear() {
	for r := range that {
		for c := range that[r] {
			that[r][c] = EmptyCell
		}
	}
}

func (that *Board) InBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

func (that *Board) IsEmpty(row, col int) bool {
	return that[row][col] == EmptyCell
}

// Rows renders every row as a string of symbols, used by the status surface.
func (that *Board) Rows() []string {
	rows := make([]string, 0, BoardSize)
	for r := range that {
		var sb strings.Builder
		for c := range that[r] {
			sb.WriteByte(byte(that[r][c]))
		}
		rows = append(rows, sb.String())
	}

	return rows
}

// GameState is a point-in-time copy of the shared game state.
type GameState struct {
	ID                 string    `json:"id"`
	Board              Board     `json:"-"`
	PlayerCount        int       `json:"player_count"`
	CurrentPlayerIndex int       `json:"current_player_index"`
	GameOver           bool      `json:"game_over"`
	WinnerID           int       `json:"winner_id"`
	TurnCount          int       `json:"turn_count"`
	WinCounts          []int     `json:"win_counts"`
	Players            []*Player `json:"players"`
}

// IsDraw reports a finished game without a winner.
func (that GameState) IsDraw() bool {
	return that.GameOver && that.WinnerID == NoWinner
}

// Player returns the roster entry for a 1-based player id.
func (that GameState) Player(id int) (*Player, bool) {
	for _, player := range that.Players {
		if player.ID == id {
			return player, true
		}
	}

	return nil, false
}
