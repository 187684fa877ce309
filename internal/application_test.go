package application

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/minesweeper-backend/internal/config"
	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestOpenGameRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Persistence turned off", func(t *testing.T) {
		// Given: the none driver
		conf := &config.Config{Storage: config.Storage{Driver: config.StorageNone}}

		// When: the repository is opened
		repo, closeRepo := OpenGameRepository(ctx, newTestLogger(), conf)
		defer closeRepo()

		// Then: there is no store
		assert.Nil(t, repo)
	})

	t.Run("SQLite file is created and migrated", func(t *testing.T) {
		// Given: a database path in an empty directory
		conf := &config.Config{Storage: config.Storage{
			Driver:     config.StorageSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "games.db"),
		}}

		// When: the repository is opened
		repo, closeRepo := OpenGameRepository(ctx, newTestLogger(), conf)
		defer closeRepo()

		// Then: games can be stored right away
		require.NotNil(t, repo)

		id, err := repo.Save(ctx, &entity.NewGameRecord{
			Player:        "alice",
			Size:          3,
			Mines:         1,
			MinePositions: []entity.Coordinate{{X: 1, Y: 1}},
			Status:        entity.RecordStatusWin,
		})
		require.NoError(t, err)
		assert.Positive(t, id)
	})

	t.Run("Unreachable SQLite degrades to no store", func(t *testing.T) {
		// Given: a path inside a directory that does not exist
		conf := &config.Config{Storage: config.Storage{
			Driver:     config.StorageSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "missing", "games.db"),
		}}

		// When: the repository is opened
		repo, closeRepo := OpenGameRepository(ctx, newTestLogger(), conf)
		defer closeRepo()

		// Then: the app runs without persistence
		assert.Nil(t, repo)
	})

	t.Run("Unreachable Redis degrades to no store", func(t *testing.T) {
		// Given: a redis address nobody listens on
		conf := &config.Config{
			Storage: config.Storage{Driver: config.StorageRedis},
			Redis:   config.Redis{Host: "127.0.0.1", Port: "1"},
		}

		// When: the repository is opened
		repo, closeRepo := OpenGameRepository(ctx, newTestLogger(), conf)
		defer closeRepo()

		// Then: the app runs without persistence
		assert.Nil(t, repo)
	})
}
