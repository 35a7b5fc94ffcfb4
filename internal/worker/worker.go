package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/rocketscienceinc/megattt-backend/internal/apperror"
	"github.com/rocketscienceinc/megattt-backend/internal/entity"
	"github.com/rocketscienceinc/megattt-backend/internal/game"
	"github.com/rocketscienceinc/megattt-backend/internal/protocol"
)

type State int

const (
	StateWaitTurn State = iota
	StateMyTurn
	StateAwaitMove
	StateValidateApply
	StateGameOver
	StateClosed
)

func (that State) String() string {
	switch that {
	case StateWaitTurn:
		return "WAIT_TURN"
	case StateMyTurn:
		return "MY_TURN"
	case StateAwaitMove:
		return "AWAIT_MOVE"
	case StateValidateApply:
		return "VALIDATE_APPLY"
	case StateGameOver:
		return "GAME_OVER"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// maxLineLength bounds one client line; longer input is treated as malformed.
const maxLineLength = 256

var errLineTooLong = errors.New("line too long")

type gameStore interface {
	Snapshot() entity.GameState
	ApplyMove(playerID, row, col int) (game.Outcome, error)
	SetActive(playerID int, active bool) error
}

type turnSignals interface {
	Raise(slot int) bool
	TryAcquire(slot int) bool
}

type scheduler interface {
	Wake()
}

type eventSink interface {
	Publishf(format string, args ...any)
}

type Options struct {
	PollInterval time.Duration
	WriteTimeout time.Duration
}

// Worker owns one player's connection and drives that player through the
// turn cycle.
type Worker struct {
	logger *slog.Logger

	player entity.Player
	conn   net.Conn
	reader *bufio.Reader

	store     gameStore
	turns     turnSignals
	scheduler scheduler
	sink      eventSink
	options   Options

	state         atomic.Int32
	lastTurnCount int
	row, col      int
}

func New(
	logger *slog.Logger,
	player entity.Player,
	conn net.Conn,
	store gameStore,
	turns turnSignals,
	scheduler scheduler,
	sink eventSink,
	options Options,
) *Worker {
	w := &Worker{
		logger: logger.With("component", "worker", "playerID", player.ID),

		player: player,
		conn:   conn,
		reader: bufio.NewReaderSize(conn, maxLineLength),

		store:     store,
		turns:     turns,
		scheduler: scheduler,
		sink:      sink,
		options:   options,
	}
	w.state.Store(int32(StateClosed))

	return w
}

func (that *Worker) Player() entity.Player {
	return that.player
}

// State - CLOSED until Run has taken its first snapshot, and again after Run.
func (that *Worker) State() State {
	return State(that.state.Load())
}

// Run - drives the state machine until the connection is lost or ctx ends.
// A lost connection only ends this worker; it is not reported as an error.
func (that *Worker) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	defer func() {
		that.state.Store(int32(StateClosed))

		if err := that.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Warn("failed to close connection", "error", err)
		}
	}()

	log.Info("worker started", "symbol", that.player.Symbol.String())

	that.lastTurnCount = that.store.Snapshot().TurnCount

	state := StateWaitTurn
	for state != StateClosed {
		if ctx.Err() != nil {
			break
		}
		that.state.Store(int32(state))

		next := that.step(ctx, state)
		if next != state {
			log.Debug("state change", "from", state.String(), "to", next.String())
		}
		state = next
	}

	log.Info("worker stopped")

	return nil
}

func (that *Worker) step(ctx context.Context, state State) State {
	switch state {
	case StateWaitTurn:
		return that.waitTurn(ctx)
	case StateMyTurn:
		return that.promptTurn(ctx)
	case StateAwaitMove:
		return that.awaitMove(ctx)
	case StateValidateApply:
		return that.applyMove()
	case StateGameOver:
		return that.finishGame(ctx)
	default:
		return StateClosed
	}
}

// waitTurn - polls the own turn signal, and between polls pushes spectator
// updates whenever another move lands.
func (that *Worker) waitTurn(ctx context.Context) State {
	log := that.logger.With("method", "waitTurn")

	ticker := time.NewTicker(that.options.PollInterval)
	defer ticker.Stop()

	for {
		if that.turns.TryAcquire(that.player.Index()) {
			return StateMyTurn
		}

		state := that.store.Snapshot()
		if state.GameOver {
			return StateGameOver
		}

		if state.TurnCount > that.lastTurnCount {
			that.lastTurnCount = state.TurnCount

			if err := that.send(protocol.RenderBoard(&state.Board, that.player.Symbol, true)); err != nil {
				log.Warn("failed to send spectator update", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return StateClosed
		case <-ticker.C:
		}
	}
}

func (that *Worker) promptTurn(ctx context.Context) State {
	state := that.store.Snapshot()
	that.lastTurnCount = state.TurnCount

	err := that.send(protocol.RenderBoard(&state.Board, that.player.Symbol, false) + protocol.YourTurn())
	if err != nil {
		return that.disconnect(ctx, fmt.Errorf("failed to prompt turn: %w", err))
	}

	return StateAwaitMove
}

func (that *Worker) awaitMove(ctx context.Context) State {
	log := that.logger.With("method", "awaitMove")

	line, err := that.readLine()
	if err != nil && !errors.Is(err, errLineTooLong) {
		return that.disconnect(ctx, fmt.Errorf("failed to read move: %w", err))
	}

	if err == nil {
		that.row, that.col, err = protocol.ParseMove(line)
	}
	if err != nil {
		log.Debug("malformed move, prompting again", "error", err)

		// the credit goes back to this slot and is consumed again in waitTurn
		that.retry()

		return StateWaitTurn
	}

	return StateValidateApply
}

func (that *Worker) applyMove() State {
	log := that.logger.With("method", "applyMove")

	outcome, err := that.store.ApplyMove(that.player.ID, that.row, that.col)
	switch {
	case errors.Is(err, apperror.ErrGameFinished):
		return StateWaitTurn
	case err != nil:
		log.Debug("move rejected", "row", that.row, "col", that.col, "error", err)

		if sendErr := that.send(protocol.Invalid()); sendErr != nil {
			log.Warn("failed to send invalid notice", "error", sendErr)
		}
		that.retry()

		return StateWaitTurn
	}

	that.sink.Publishf("[Gameplay] Player %d placed '%c' at (%d, %d)", that.player.ID, outcome.Symbol, that.row, that.col)

	if outcome.GameOver {
		log.Info("game over", "winnerID", outcome.WinnerID, "turns", outcome.TurnCount)
	}

	that.scheduler.Wake()

	return StateWaitTurn
}

// finishGame - sends the final board and result once, then waits for reset.
func (that *Worker) finishGame(ctx context.Context) State {
	log := that.logger.With("method", "finishGame")

	state := that.store.Snapshot()

	err := that.send(protocol.RenderBoard(&state.Board, that.player.Symbol, false) + protocol.GameOver(state.WinnerID))
	if err != nil {
		log.Warn("failed to send game over", "error", err)
	}

	log.Info("waiting for new game")

	ticker := time.NewTicker(that.options.PollInterval)
	defer ticker.Stop()

	for that.store.Snapshot().GameOver {
		select {
		case <-ctx.Done():
			return StateClosed
		case <-ticker.C:
		}
	}

	log.Info("new game started")

	// forces a fresh spectator render of the empty board
	that.lastTurnCount = -1

	return StateWaitTurn
}

// readLine - reads one line of at most maxLineLength bytes. The rest of an
// overlong line is discarded and errLineTooLong is returned.
func (that *Worker) readLine() (string, error) {
	line, err := that.reader.ReadSlice('\n')
	if !errors.Is(err, bufio.ErrBufferFull) {
		return string(line), err
	}

	for errors.Is(err, bufio.ErrBufferFull) {
		_, err = that.reader.ReadSlice('\n')
	}
	if err != nil {
		return "", err
	}

	return "", errLineTooLong
}

func (that *Worker) retry() {
	if !that.turns.Raise(that.player.Index()) {
		that.logger.Warn("own turn signal already pending", "slot", that.player.Index())
	}
}

func (that *Worker) disconnect(ctx context.Context, cause error) State {
	if ctx.Err() != nil {
		return StateClosed
	}

	that.logger.Warn("player disconnected", "error", cause)
	that.sink.Publishf("[Connection] Player %d disconnected.", that.player.ID)

	if err := that.store.SetActive(that.player.ID, false); err != nil {
		that.logger.Error("failed to mark player inactive", "error", err)
	}

	return StateClosed
}

func (that *Worker) send(payload string) error {
	if that.options.WriteTimeout > 0 {
		if err := that.conn.SetWriteDeadline(time.Now().Add(that.options.WriteTimeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
	}

	if _, err := that.conn.Write([]byte(payload)); err != nil {
		return fmt.Errorf("failed to write to player %d: %w", that.player.ID, err)
	}

	return nil
}
