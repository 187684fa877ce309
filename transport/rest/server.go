package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
	"github.com/rocketscienceinc/minesweeper-backend/pkg/handlers"
)

const shutdownTimeout = 5 * time.Second

type gameHistory interface {
	History(ctx context.Context) ([]*entity.GameRecord, error)
	PlayerHistory(ctx context.Context, player string) ([]*entity.GameRecord, error)
	GameRecord(ctx context.Context, id int64) (*entity.GameRecord, error)
	Moves(ctx context.Context, gameID int64) ([]*entity.MoveRecord, error)
}

type Server struct {
	logger  *slog.Logger
	history gameHistory
}

func New(logger *slog.Logger, history gameHistory) *Server {
	return &Server{
		logger:  logger.With("component", "rest"),
		history: history,
	}
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", handlers.PingHandler)
	mux.HandleFunc("GET /games", that.listGames)
	mux.HandleFunc("GET /games/{id}", that.getGame)
	mux.HandleFunc("GET /games/{id}/moves", that.getMoves)

	return mux
}

// Start serves until ctx is cancelled and then shuts the server down.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
