package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/megattt-backend/internal/entity"
	"github.com/rocketscienceinc/megattt-backend/internal/game"
	"github.com/rocketscienceinc/megattt-backend/internal/turn"
)

var errDiskFull = errors.New("disk full")

type mockScoreRepo struct {
	mock.Mock
}

func newMockScoreRepo(t *testing.T) *mockScoreRepo {
	t.Helper()

	repo := &mockScoreRepo{}
	repo.Test(t)
	t.Cleanup(func() { repo.AssertExpectations(t) })

	return repo
}

func (that *mockScoreRepo) Append(ctx context.Context, record *entity.ScoreRecord) error {
	args := that.Called(ctx, record)
	return args.Error(0)
}

func (that *mockScoreRepo) LoadWinCounts(ctx context.Context) (map[int]int, error) {
	args := that.Called(ctx)

	counts, _ := args.Get(0).(map[int]int)

	return counts, args.Error(1)
}

func (that *mockScoreRepo) History(ctx context.Context) ([]string, error) {
	args := that.Called(ctx)

	lines, _ := args.Get(0).([]string)

	return lines, args.Error(1)
}

type recordingSink struct {
	mu    sync.Mutex
	lines []string
}

func (that *recordingSink) Publishf(format string, args ...any) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.lines = append(that.lines, fmt.Sprintf(format, args...))
}

func (that *recordingSink) Lines() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]string(nil), that.lines...)
}

type fixture struct {
	store     *game.Store
	turns     *turn.Set
	scheduler *turn.Scheduler
	sink      *recordingSink
	repo      *mockScoreRepo
	manager   *GameManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	store, err := game.NewStore(3)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = store.AddPlayer("")
		require.NoError(t, err)
	}

	f := &fixture{
		store: store,
		turns: turn.NewSet(3),
		sink:  &recordingSink{},
		repo:  newMockScoreRepo(t),
	}
	f.scheduler = turn.NewScheduler(logger, store, f.turns, f.sink, time.Millisecond)
	f.manager = NewGameManager(logger, store, f.repo, f.scheduler, f.turns, f.sink, Options{
		MonitorInterval: 2 * time.Millisecond,
		ResetDelay:      5 * time.Millisecond,
	})
	f.manager.now = func() time.Time {
		return time.Date(2024, time.March, 5, 14, 3, 9, 0, time.UTC)
	}

	return f
}

// winRow makes the player complete row 0.
func (that *fixture) winRow(t *testing.T, playerID int) {
	t.Helper()

	for c := 0; c < entity.WinCount; c++ {
		_, err := that.store.ApplyMove(playerID, 0, c)
		require.NoError(t, err)
	}
	require.True(t, that.store.IsGameOver())
}

func TestGameManager_StartNewGame(t *testing.T) {
	t.Run("Clears the board and arms player 0 only", func(t *testing.T) {
		// Given: a finished game with stale credits left behind
		f := newFixture(t)
		f.winRow(t, 2)
		f.turns.Raise(2)
		f.scheduler.Wake()

		// When: a new game is started
		f.manager.StartNewGame()

		// Then: the state is fresh and exactly one credit is pending
		state := f.store.Snapshot()
		assert.False(t, state.GameOver)
		assert.Equal(t, 0, state.TurnCount)
		assert.Equal(t, entity.NewBoard(), state.Board)

		assert.True(t, f.turns.TryAcquire(0))
		assert.Equal(t, 0, f.turns.Drain())
		assert.Equal(t, 0, f.scheduler.DrainWake())
	})

	t.Run("Is idempotent", func(t *testing.T) {
		f := newFixture(t)

		// When: a new game is started twice in a row
		f.manager.StartNewGame()
		f.manager.StartNewGame()

		// Then: player 0 still holds a single credit
		assert.True(t, f.turns.TryAcquire(0))
		assert.False(t, f.turns.TryAcquire(0))
	})
}

func TestGameManager_Run(t *testing.T) {
	t.Run("Records the winner and resets", func(t *testing.T) {
		f := newFixture(t)

		saved := make(chan *entity.ScoreRecord, 1)
		f.repo.On("Append", mock.Anything, mock.AnythingOfType("*entity.ScoreRecord")).
			Run(func(args mock.Arguments) {
				saved <- args.Get(1).(*entity.ScoreRecord)
			}).
			Return(nil).
			Once()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- f.manager.Run(ctx) }()

		// Given: player 2 wins
		gameID := f.store.Snapshot().ID
		f.winRow(t, 2)

		// Then: the score record describes the game
		var record *entity.ScoreRecord
		select {
		case record = <-saved:
		case <-time.After(time.Second):
			require.FailNow(t, "score was not saved")
		}
		assert.Equal(t, gameID, record.GameID)
		assert.Equal(t, 2, record.WinnerID)
		assert.Equal(t, entity.Symbol('O'), record.Symbol)
		assert.Equal(t, 5, record.Turns)
		assert.Equal(t, 1, record.TotalWins)

		// Then: a new game starts with player 0 armed
		require.Eventually(t, func() bool {
			return !f.store.IsGameOver()
		}, time.Second, time.Millisecond)
		require.Eventually(t, func() bool {
			return f.turns.TryAcquire(0)
		}, time.Second, time.Millisecond)

		assert.Equal(t, []int{0, 1, 0}, f.store.Snapshot().WinCounts)
		assert.Contains(t, f.sink.Lines(), "[Game] Game Over. Winner: 2")

		cancel()
		require.NoError(t, <-done)
	})

	t.Run("A failed save does not block the reset", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("Append", mock.Anything, mock.Anything).Return(errDiskFull).Once()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- f.manager.Run(ctx) }()

		// Given: player 3 wins and the score store fails
		f.winRow(t, 3)

		// Then: the game is still reset
		require.Eventually(t, func() bool {
			return !f.store.IsGameOver()
		}, time.Second, time.Millisecond)
		assert.Equal(t, []int{0, 0, 1}, f.store.Snapshot().WinCounts)

		cancel()
		require.NoError(t, <-done)
	})

	t.Run("Stops during the reset delay", func(t *testing.T) {
		f := newFixture(t)
		f.manager.options.ResetDelay = time.Hour
		f.repo.On("Append", mock.Anything, mock.Anything).Return(nil).Once()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- f.manager.Run(ctx) }()

		// Given: a finished game waiting for its cool-down
		f.winRow(t, 1)
		require.Eventually(t, func() bool {
			return len(f.sink.Lines()) > 0
		}, time.Second, time.Millisecond)

		// When: the context is canceled
		cancel()

		// Then: Run returns without resetting
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			require.FailNow(t, "run did not stop")
		}
		assert.True(t, f.store.IsGameOver())
	})
}

func TestGameManager_finishGame(t *testing.T) {
	// Given: a drawn game
	f := newFixture(t)
	state := f.store.Snapshot()
	state.GameOver = true
	state.TurnCount = entity.BoardSize * entity.BoardSize

	f.repo.On("Append", mock.Anything, mock.MatchedBy(func(record *entity.ScoreRecord) bool {
		return record.IsDraw() && record.Turns == 144 && record.TotalWins == 0
	})).Return(nil).Once()

	// When: the result is recorded
	f.manager.finishGame(context.Background(), &state)

	// Then: nobody gains a win
	assert.Equal(t, []int{0, 0, 0}, f.store.Snapshot().WinCounts)
	assert.Equal(t, []string{"[Game] Game Over. Winner: 0"}, f.sink.Lines())
}

func TestGameManager_LoadScores(t *testing.T) {
	t.Run("Seeds win counts", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("LoadWinCounts", mock.Anything).Return(map[int]int{1: 4, 3: 2}, nil).Once()

		// When: scores are loaded
		err := f.manager.LoadScores(context.Background())

		// Then: the tallies are seeded and the leaderboard is ordered by wins
		require.NoError(t, err)
		assert.Equal(t, []int{4, 0, 2}, f.store.Snapshot().WinCounts)

		board := f.manager.Leaderboard()
		require.Len(t, board, 3)
		assert.Equal(t, []int{1, 3, 2}, []int{board[0].PlayerID, board[1].PlayerID, board[2].PlayerID})
		assert.Equal(t, entity.Symbol('A'), board[1].Symbol)
		assert.Equal(t, 2, board[1].Wins)
	})

	t.Run("Returns repository errors", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("LoadWinCounts", mock.Anything).Return(nil, errDiskFull).Once()

		// When: the repository fails
		err := f.manager.LoadScores(context.Background())

		// Then: the error is wrapped
		require.ErrorIs(t, err, errDiskFull)
	})
}

func TestGameManager_History(t *testing.T) {
	t.Run("Returns the recorded lines", func(t *testing.T) {
		f := newFixture(t)
		lines := []string{"[Tue Mar  5 14:03:09 2024] Draw! Total Turns: 144"}
		f.repo.On("History", mock.Anything).Return(lines, nil).Once()

		// When: the history is requested
		history, err := f.manager.History(context.Background())

		// Then: the repository lines are passed through
		require.NoError(t, err)
		assert.Equal(t, lines, history)
	})

	t.Run("Never returns nil on success", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("History", mock.Anything).Return(nil, nil).Once()

		// When: the repository has nothing
		history, err := f.manager.History(context.Background())

		// Then: an empty list is returned
		require.NoError(t, err)
		assert.NotNil(t, history)
		assert.Empty(t, history)
	})

	t.Run("Wraps repository errors", func(t *testing.T) {
		f := newFixture(t)
		f.repo.On("History", mock.Anything).Return(nil, errDiskFull).Once()

		// When: the repository fails
		_, err := f.manager.History(context.Background())

		// Then: the error is wrapped
		require.ErrorIs(t, err, errDiskFull)
	})
}
