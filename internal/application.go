package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/megattt-backend/internal/config"
	"github.com/rocketscienceinc/megattt-backend/internal/eventlog"
	"github.com/rocketscienceinc/megattt-backend/internal/game"
	"github.com/rocketscienceinc/megattt-backend/internal/repository"
	"github.com/rocketscienceinc/megattt-backend/internal/repository/storage"
	"github.com/rocketscienceinc/megattt-backend/internal/turn"
	"github.com/rocketscienceinc/megattt-backend/internal/usecase"
	"github.com/rocketscienceinc/megattt-backend/internal/worker"
	"github.com/rocketscienceinc/megattt-backend/transport/rest"
	"github.com/rocketscienceinc/megattt-backend/transport/socket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := game.NewStore(conf.Players)
	if err != nil {
		return fmt.Errorf("failed to create game store: %w", err)
	}

	scoreRepo, closeScores, err := openScoreRepository(ctx, conf)
	if err != nil {
		return err
	}
	defer closeScores(log)

	logFile, err := eventlog.OpenFile(conf.EventLog)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer func() {
		if err = logFile.Close(); err != nil {
			log.Error("could not close event log", "error", err)
		}
	}()

	sink := eventlog.New(logger, logFile)
	turns := turn.NewSet(conf.Players)
	scheduler := turn.NewScheduler(logger, store, turns, sink, conf.ResetPollInterval)
	manager := usecase.NewGameManager(logger, store, scoreRepo, scheduler, turns, sink, usecase.Options{
		MonitorInterval: conf.MonitorInterval,
		ResetDelay:      conf.ResetDelay,
	})

	if err = manager.LoadScores(ctx); err != nil {
		return fmt.Errorf("failed to load scores: %w", err)
	}

	server := socket.New(logger, store, turns, scheduler, sink, worker.Options{
		PollInterval: conf.PollInterval,
		WriteTimeout: conf.WriteTimeout,
	})
	if err = server.Listen(conf.Listen.Network, conf.Listen.Address); err != nil {
		return fmt.Errorf("failed to start socket server: %w", err)
	}
	defer func() {
		if err := server.Close(); err != nil {
			log.Error("could not close socket server", "error", err)
		}

		logLeaderboard(log, manager)
	}()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return sink.Run(groupCtx)
	})

	if conf.HTTPPort != "" {
		group.Go(func() error {
			return rest.New(logger, manager).Start(groupCtx, conf.HTTPPort)
		})
	}

	log.Info("waiting for players", "players", conf.Players)

	workers, err := server.AcceptPlayers(groupCtx, conf.Players)
	if err != nil {
		interrupted := ctx.Err() != nil

		cancel()
		if waitErr := group.Wait(); waitErr != nil {
			return fmt.Errorf("application task failed: %w", waitErr)
		}
		if interrupted {
			log.Info("shutdown before all players connected")
			return nil
		}
		return fmt.Errorf("failed to admit players: %w", err)
	}

	sink.Publishf("[Game] All players connected. Game Starting.")
	manager.StartNewGame()

	group.Go(func() error {
		return scheduler.Run(groupCtx)
	})
	group.Go(func() error {
		return manager.Run(groupCtx)
	})
	group.Go(func() error {
		return server.Serve(groupCtx, workers)
	})

	err = group.Wait()
	log.Info("application stopped")

	if err != nil {
		return fmt.Errorf("application task failed: %w", err)
	}

	return nil
}

// openScoreRepository - picks the score backend from config. The returned
// func releases it.
func openScoreRepository(ctx context.Context, conf *config.Config) (repository.ScoreRepository, func(*slog.Logger), error) {
	if conf.Score.Storage != config.ScoreStorageRedis {
		return repository.NewFileScoreRepository(conf.Score.File), func(*slog.Logger) {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, nil, ErrAddrNotFound
	}

	client, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	release := func(log *slog.Logger) {
		if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewRedisScoreRepository(client), release, nil
}

func logLeaderboard(log *slog.Logger, manager *usecase.GameManager) {
	for place, standing := range manager.Leaderboard() {
		log.Info("final leaderboard",
			"place", place+1,
			"playerID", standing.PlayerID,
			"symbol", standing.Symbol.String(),
			"wins", standing.Wins,
		)
	}
}
