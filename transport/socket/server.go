package socket

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/rocketscienceinc/megattt-backend/internal/entity"
	"github.com/rocketscienceinc/megattt-backend/internal/game"
	"github.com/rocketscienceinc/megattt-backend/internal/worker"
)

const socketFileMode = 0o666

var ErrNotListening = errors.New("server is not listening")

type playerStore interface {
	AddPlayer(name string) (entity.Player, error)
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

// Server admits a fixed number of players on a stream socket and runs one
// worker per player connection.
type Server struct {
	logger *slog.Logger

	store     playerStore
	turns     turnSignals
	scheduler scheduler
	sink      eventSink
	options   worker.Options

	listener net.Listener
	network  string
	address  string

	mu      sync.Mutex
	conns   []net.Conn
	workers sync.WaitGroup
}

func New(
	logger *slog.Logger,
	store playerStore,
	turns turnSignals,
	scheduler scheduler,
	sink eventSink,
	options worker.Options,
) *Server {
	return &Server{
		logger: logger.With("component", "socketServer"),

		store:     store,
		turns:     turns,
		scheduler: scheduler,
		sink:      sink,
		options:   options,
	}
}

// Listen - binds the endpoint. A stale unix socket file is removed first.
func (that *Server) Listen(network, address string) error {
	if network == "unix" {
		if err := os.Remove(address); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove stale socket %s: %w", address, err)
		}
	}

	listener, err := net.Listen(network, address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s %s: %w", network, address, err)
	}

	if network == "unix" {
		if err = os.Chmod(address, socketFileMode); err != nil {
			_ = listener.Close()
			return fmt.Errorf("failed to chmod socket %s: %w", address, err)
		}
	}

	that.listener = listener
	that.network = network
	that.address = address

	that.logger.Info("listening", "network", network, "address", listener.Addr().String())

	return nil
}

func (that *Server) Addr() net.Addr {
	if that.listener == nil {
		return nil
	}

	return that.listener.Addr()
}

// AcceptPlayers - blocks until n players are connected and returns their
// workers, not yet started. Cancelling ctx closes the listener.
func (that *Server) AcceptPlayers(ctx context.Context, n int) ([]*worker.Worker, error) {
	log := that.logger.With("method", "AcceptPlayers")

	if that.listener == nil {
		return nil, ErrNotListening
	}

	stop := context.AfterFunc(ctx, that.closeListener)
	defer stop()

	workers := make([]*worker.Worker, 0, n)
	for len(workers) < n {
		log.Info("waiting for player", "connected", len(workers), "expected", n)

		conn, err := that.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("admission interrupted: %w", ctx.Err())
			}
			return nil, fmt.Errorf("failed to accept player: %w", err)
		}

		player, err := that.store.AddPlayer("")
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to add player: %w", err)
		}

		that.track(conn)

		that.sink.Publishf("[Connection] Player %d connected from %s", player.ID, remoteName(conn))
		log.Info("player connected", "playerID", player.ID, "symbol", player.Symbol.String())

		workers = append(workers, worker.New(that.logger, player, conn, that.store, that.turns, that.scheduler, that.sink, that.options))
	}

	return workers, nil
}

// Serve - runs the workers and turns away surplus connections until ctx is
// done. Workers keep running until Close.
func (that *Server) Serve(ctx context.Context, workers []*worker.Worker) error {
	log := that.logger.With("method", "Serve")

	if that.listener == nil {
		return ErrNotListening
	}

	for _, w := range workers {
		w := w
		that.workers.Add(1)
		go func() {
			defer that.workers.Done()
			_ = w.Run(ctx)
		}()
	}

	stop := context.AfterFunc(ctx, that.closeListener)
	defer stop()

	for {
		conn, err := that.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		log.Warn("game is full, rejecting connection", "remote", remoteName(conn))
		_ = conn.Close()
	}
}

// Close - stops admission, closes every player connection and waits for the
// workers. The unix socket file is removed.
func (that *Server) Close() error {
	that.closeListener()

	that.mu.Lock()
	for _, conn := range that.conns {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			that.logger.Warn("failed to close player connection", "error", err)
		}
	}
	that.conns = nil
	that.mu.Unlock()

	that.workers.Wait()

	if that.network == "unix" {
		if err := os.Remove(that.address); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove socket %s: %w", that.address, err)
		}
	}

	return nil
}

func (that *Server) closeListener() {
	if that.listener == nil {
		return
	}

	if err := that.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		that.logger.Warn("failed to close listener", "error", err)
	}
}

func (that *Server) track(conn net.Conn) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.conns = append(that.conns, conn)
}

// remoteName - unix peers have no address, so the socket path is used.
func remoteName(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil && addr.String() != "" {
		return addr.String()
	}

	return conn.LocalAddr().String()
}
