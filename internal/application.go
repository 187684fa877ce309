package application

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/minesweeper-backend/internal/config"
	"github.com/rocketscienceinc/minesweeper-backend/internal/replay"
	"github.com/rocketscienceinc/minesweeper-backend/internal/repository"
	"github.com/rocketscienceinc/minesweeper-backend/internal/repository/storage"
	"github.com/rocketscienceinc/minesweeper-backend/internal/usecase"
	"github.com/rocketscienceinc/minesweeper-backend/transport/rest"
	"github.com/rocketscienceinc/minesweeper-backend/transport/websocket"
)

// RunApp - runs the application.
func RunApp(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gameRepo, closeRepo := OpenGameRepository(ctx, logger, conf)
	defer closeRepo()

	gameManager := usecase.NewGameManager(logger, gameRepo, conf.Game.MaxSize)
	replayDriver := replay.NewDriver(logger, gameRepo, conf.Replay.Pace)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.New(logger, gameManager).Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := websocket.New(logger, gameManager, replayDriver).Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// OpenGameRepository connects the configured store. When the store cannot be
// opened the failure is logged once and a nil repository is returned, so the
// game stays playable without history. The returned func closes the store.
func OpenGameRepository(ctx context.Context, logger *slog.Logger, conf *config.Config) (repository.GameRepository, func()) {
	log := logger.With("component", "storage", "driver", conf.Storage.Driver)

	switch conf.Storage.Driver {
	case config.StorageNone:
		log.Info("persistence disabled by configuration")
		return nil, func() {}

	case config.StorageRedis:
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr(), conf.Redis.DB)
		if err != nil {
			log.Warn("storage unavailable, finished games will not be saved", "error", err)
			return nil, func() {}
		}

		return repository.NewRedisGameRepository(redisStorage.Connection), func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}

	default:
		sqliteStorage, err := storage.NewSQLiteStorage(ctx, conf.Storage.SQLitePath)
		if err != nil {
			log.Warn("storage unavailable, finished games will not be saved", "error", err)
			return nil, func() {}
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			log.Warn("storage unavailable, finished games will not be saved", "error", err)
			return nil, func() {}
		}

		return repository.NewSQLiteGameRepository(sqliteStorage.Connection), func() {
			if err = sqliteStorage.Close(); err != nil {
				log.Error("could not close sqlite storage", "error", err)
			}
		}
	}
}
