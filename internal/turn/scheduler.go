package turn

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rocketscienceinc/megattt-backend/internal/entity"
)

type State int32

const (
	StateRunning State = iota
	StateWaitingForReset
)

func (that State) String() string {
	switch that {
	case StateRunning:
		return "running"
	case StateWaitingForReset:
		return "waiting_for_reset"
	default:
		return "unknown"
	}
}

type turnStore interface {
	AdvanceTurn() (from, to int, advanced bool)
	IsGameOver() bool
}

type eventSink interface {
	Publishf(format string, args ...any)
}

// Scheduler hands the turn to the next player after every completed move.
// It is the only component that raises turn signals during a game.
type Scheduler struct {
	logger *slog.Logger

	store turnStore
	turns *Set
	sink  eventSink

	wake         *Signal
	pollInterval time.Duration
	state        atomic.Int32
}

func NewScheduler(logger *slog.Logger, store turnStore, turns *Set, sink eventSink, pollInterval time.Duration) *Scheduler {
	return &Scheduler{
		logger: logger.With("component", "scheduler"),

		store: store,
		turns: turns,
		sink:  sink,

		wake:         NewSignal(),
		pollInterval: pollInterval,
	}
}

// Wake - reports a completed valid move. Called exactly once per accepted move.
func (that *Scheduler) Wake() {
	if !that.wake.Raise() {
		that.logger.Warn("scheduler wake signal already pending")
	}
}

// DrainWake - discards pending wake credits, used at a game reset boundary.
func (that *Scheduler) DrainWake() int {
	return that.wake.Drain()
}

func (that *Scheduler) State() State {
	return State(that.state.Load())
}

// Run - consumes wake signals until ctx is done.
func (that *Scheduler) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	log.Info("scheduler started")
	defer log.Info("scheduler stopped")

	for {
		if err := that.wake.Wait(ctx); err != nil {
			return nil
		}

		from, to, advanced := that.store.AdvanceTurn()
		if !advanced {
			log.Info("game over detected, waiting for reset")

			if !that.waitForReset(ctx) {
				return nil
			}

			log.Info("reset detected, resuming")
			continue
		}

		that.sink.Publishf("[Scheduler] Player %d (%d) -> Player %d (%d)",
			entity.PlayerID(from), from, entity.PlayerID(to), to)

		if !that.turns.Raise(to) {
			log.Warn("turn signal already pending", "slot", to)
		}
	}
}

// waitForReset - polls until the game over flag clears. It reports false when
// ctx ends first.
func (that *Scheduler) waitForReset(ctx context.Context) bool {
	that.state.Store(int32(StateWaitingForReset))
	defer that.state.Store(int32(StateRunning))

	ticker := time.NewTicker(that.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}

		if !that.store.IsGameOver() {
			return true
		}
	}
}
