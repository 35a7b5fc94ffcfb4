package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rocketscienceinc/megattt-backend/internal/entity"
	"github.com/rocketscienceinc/megattt-backend/pkg/handlers"
)

const shutdownTimeout = 5 * time.Second

type uGame interface {
	State() entity.GameState
	Leaderboard() []entity.Standing
	History(ctx context.Context) ([]string, error)
}

type Server struct {
	logger *slog.Logger
	uGame  uGame
}

func New(logger *slog.Logger, uGame uGame) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		uGame:  uGame,
	}
}

func (that *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/ping", handlers.PingHandler).Methods(http.MethodGet)
	router.HandleFunc("/state", that.stateHandler).Methods(http.MethodGet)
	router.HandleFunc("/scores", that.scoresHandler).Methods(http.MethodGet)
	router.HandleFunc("/history", that.historyHandler).Methods(http.MethodGet)

	return router
}

// Start - serves HTTP until ctx is done, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	log := that.logger.With("method", "Start")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down HTTP server", "error", err)
		}
	})
	defer stop()

	log.Info("starting HTTP server", "port", port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
