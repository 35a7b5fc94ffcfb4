package game

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/megattt-backend/internal/apperror"
	"github.com/rocketscienceinc/megattt-backend/internal/entity"
	"github.com/rocketscienceinc/megattt-backend/internal/tictactoe"
)

// Outcome describes an accepted move.
type Outcome struct {
	Symbol    entity.Symbol
	TurnCount int
	GameOver  bool
	WinnerID  int
}

// Store is the single source of truth for the game. Every field is read and
// written under mu, and no method performs I/O while holding it.
type Store struct {
	mu sync.Mutex

	id                 string
	board              entity.Board
	playerCount        int
	currentPlayerIndex int
	gameOver           bool
	winnerID           int
	turnCount          int
	winCounts          [entity.MaxPlayers]int
	players            []*entity.Player
}

func NewStore(playerCount int) (*Store, error) {
	if playerCount < entity.MinPlayers || playerCount > entity.MaxPlayers {
		return nil, fmt.Errorf("%w: got %d", apperror.ErrInvalidPlayerCount, playerCount)
	}

	return &Store{
		id:          uuid.NewString(),
		board:       entity.NewBoard(),
		playerCount: playerCount,
		players:     make([]*entity.Player, 0, playerCount),
	}, nil
}

// AddPlayer - registers the next connected player and assigns its symbol.
func (that *Store) AddPlayer(name string) (entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.players) >= that.playerCount {
		return entity.Player{}, apperror.ErrRosterFull
	}

	index := len(that.players)
	player := &entity.Player{
		ID:     entity.PlayerID(index),
		Name:   name,
		Symbol: entity.Symbols[index],
		Active: true,
	}

	if player.Name == "" {
		player.Name = fmt.Sprintf("Player %d", player.ID)
	}

	that.players = append(that.players, player)

	return *player, nil
}

// SetActive - marks a player as connected or gone.
func (that *Store) SetActive(playerID int, active bool) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, err := that.playerLocked(playerID)
	if err != nil {
		return err
	}

	player.Active = active

	return nil
}

// ApplyMove - validates the cell and writes the player's symbol.
// Turn ownership is not checked here: holding the turn signal is what grants
// the right to call it.
func (that *Store) ApplyMove(playerID, row, col int) (Outcome, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, err := that.playerLocked(playerID)
	if err != nil {
		return Outcome{}, err
	}

	if that.gameOver {
		return Outcome{}, apperror.ErrGameFinished
	}

	if err = tictactoe.ValidateMove(&that.board, row, col); err != nil {
		return Outcome{}, fmt.Errorf("invalid move (%d, %d): %w", row, col, err)
	}

	that.board[row][col] = player.Symbol
	that.turnCount++

	switch {
	case tictactoe.Wins(&that.board, row, col, player.Symbol):
		that.gameOver = true
		that.winnerID = player.ID
	case tictactoe.IsBoardFull(that.turnCount):
		that.gameOver = true
		that.winnerID = entity.NoWinner
	}

	return Outcome{
		Symbol:    player.Symbol,
		TurnCount: that.turnCount,
		GameOver:  that.gameOver,
		WinnerID:  that.winnerID,
	}, nil
}

// AdvanceTurn - moves the turn index to the next slot, round-robin.
// It refuses while the game is over and returns the slots involved otherwise.
func (that *Store) AdvanceTurn() (from, to int, advanced bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.gameOver {
		return that.currentPlayerIndex, that.currentPlayerIndex, false
	}

	from = that.currentPlayerIndex
	to = (from + 1) % that.playerCount
	that.currentPlayerIndex = to

	return from, to, true
}

// IsGameOver - reports whether the current game has finished.
func (that *Store) IsGameOver() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.gameOver
}

// Reset - prepares a new game. Roster and win counts survive.
func (that *Store) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.id = uuid.NewString()
	that.board.Clear()
	that.turnCount = 0
	that.gameOver = false
	that.winnerID = entity.NoWinner
	that.currentPlayerIndex = 0
}

// RecordWin - adds a win to the player's tally and returns the new total.
func (that *Store) RecordWin(playerID int) (int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, err := that.playerLocked(playerID)
	if err != nil {
		return 0, err
	}

	that.winCounts[player.Index()]++

	return that.winCounts[player.Index()], nil
}

// SeedWinCounts - loads tallies from earlier runs, keyed by 1-based player id.
// Ids outside the supported range are ignored.
func (that *Store) SeedWinCounts(counts map[int]int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for id, count := range counts {
		if id < 1 || id > entity.MaxPlayers {
			continue
		}
		that.winCounts[id-1] = count
	}
}

// Snapshot - copies the whole state out of the lock.
func (that *Store) Snapshot() entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	players := make([]*entity.Player, 0, len(that.players))
	for _, player := range that.players {
		p := *player
		players = append(players, &p)
	}

	return entity.GameState{
		ID:                 that.id,
		Board:              that.board,
		PlayerCount:        that.playerCount,
		CurrentPlayerIndex: that.currentPlayerIndex,
		GameOver:           that.gameOver,
		WinnerID:           that.winnerID,
		TurnCount:          that.turnCount,
		WinCounts:          append([]int(nil), that.winCounts[:that.playerCount]...),
		Players:            players,
	}
}

func (that *Store) playerLocked(playerID int) (*entity.Player, error) {
	if playerID < 1 || playerID > len(that.players) {
		return nil, fmt.Errorf("%w: id %d", apperror.ErrUnknownPlayer, playerID)
	}

	return that.players[playerID-1], nil
}
