package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/rocketscienceinc/megattt-backend/internal/entity"
)

type gameStore interface {
	Snapshot() entity.GameState
	RecordWin(playerID int) (int, error)
	SeedWinCounts(counts map[int]int)
	Reset()
}

type scoreRepo interface {
	Append(ctx context.Context, record *entity.ScoreRecord) error
	LoadWinCounts(ctx context.Context) (map[int]int, error)
	History(ctx context.Context) ([]string, error)
}

type wakeDrainer interface {
	DrainWake() int
}

type turnSignals interface {
	Raise(slot int) bool
	Drain() int
}

type eventSink interface {
	Publishf(format string, args ...any)
}

type Options struct {
	MonitorInterval time.Duration
	ResetDelay      time.Duration
}

// GameManager watches for the end of a game, records the result and starts
// the next one.
type GameManager struct {
	logger *slog.Logger

	store     gameStore
	scoreRepo scoreRepo
	scheduler wakeDrainer
	turns     turnSignals
	sink      eventSink
	options   Options

	now func() time.Time
}

func NewGameManager(
	logger *slog.Logger,
	store gameStore,
	scoreRepo scoreRepo,
	scheduler wakeDrainer,
	turns turnSignals,
	sink eventSink,
	options Options,
) *GameManager {
	return &GameManager{
		logger: logger.With("component", "gameManager"),

		store:     store,
		scoreRepo: scoreRepo,
		scheduler: scheduler,
		turns:     turns,
		sink:      sink,
		options:   options,

		now: time.Now,
	}
}

// LoadScores - seeds the win tallies from earlier runs.
func (that *GameManager) LoadScores(ctx context.Context) error {
	counts, err := that.scoreRepo.LoadWinCounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load win counts: %w", err)
	}

	that.store.SeedWinCounts(counts)

	that.logger.Info("scores loaded", "method", "LoadScores", "players", len(counts))

	return nil
}

// StartNewGame - resets the board, discards every pending credit and hands
// the first turn to player 0.
func (that *GameManager) StartNewGame() {
	log := that.logger.With("method", "StartNewGame")

	that.store.Reset()

	drainedWake := that.scheduler.DrainWake()
	drainedTurns := that.turns.Drain()
	if drainedWake+drainedTurns > 0 {
		log.Warn("stale credits drained at reset", "wake", drainedWake, "turns", drainedTurns)
	}

	if !that.turns.Raise(0) {
		log.Warn("first turn signal already pending")
	}

	log.Info("new game started", "gameID", that.store.Snapshot().ID)
}

// Run - checks for game over every monitor interval until ctx is done.
func (that *GameManager) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	log.Info("game manager started")
	defer log.Info("game manager stopped")

	ticker := time.NewTicker(that.options.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		state := that.store.Snapshot()
		if !state.GameOver {
			continue
		}

		that.finishGame(ctx, &state)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(that.options.ResetDelay):
		}

		that.StartNewGame()
	}
}

func (that *GameManager) finishGame(ctx context.Context, state *entity.GameState) {
	log := that.logger.With("method", "finishGame")

	record := &entity.ScoreRecord{
		GameID:   state.ID,
		At:       that.now(),
		WinnerID: state.WinnerID,
		Turns:    state.TurnCount,
	}

	if state.WinnerID != entity.NoWinner {
		total, err := that.store.RecordWin(state.WinnerID)
		if err != nil {
			log.Error("failed to record win", "error", err)
		}
		record.TotalWins = total

		if winner, ok := state.Player(state.WinnerID); ok {
			record.Symbol = winner.Symbol
		}
	}

	that.sink.Publishf("[Game] Game Over. Winner: %d", state.WinnerID)
	log.Info("game over", "gameID", state.ID, "winnerID", state.WinnerID, "turns", state.TurnCount)

	if err := that.scoreRepo.Append(ctx, record); err != nil {
		log.Error("failed to save score", "error", err)
	}
}

// Leaderboard - the roster with cumulative wins, best first.
func (that *GameManager) Leaderboard() []entity.Standing {
	state := that.store.Snapshot()

	standings := make([]entity.Standing, 0, len(state.Players))
	for _, player := range state.Players {
		standings = append(standings, entity.Standing{
			PlayerID: player.ID,
			Name:     player.Name,
			Symbol:   player.Symbol,
			Wins:     state.WinCounts[player.Index()],
			Active:   player.Active,
		})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Wins > standings[j].Wins
	})

	return standings
}

// History - the score lines of every recorded game, oldest first.
func (that *GameManager) History(ctx context.Context) ([]string, error) {
	lines, err := that.scoreRepo.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get score history: %w", err)
	}

	if lines == nil {
		lines = []string{}
	}

	return lines, nil
}

// State - a snapshot of the current game.
func (that *GameManager) State() entity.GameState {
	return that.store.Snapshot()
}
