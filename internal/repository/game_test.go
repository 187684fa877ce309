package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
)

// clockedRepository is a store whose write clock can be pinned by the test.
type clockedRepository struct {
	GameRepository
	setNow func(now time.Time)
}

type repositoryFactory func(t *testing.T) (context.Context, clockedRepository)

func finishedGame(player string, status string, moves ...entity.Move) *entity.NewGameRecord {
	return &entity.NewGameRecord{
		Player:        player,
		Size:          3,
		Mines:         1,
		MinePositions: []entity.Coordinate{{X: 1, Y: 1}},
		Status:        status,
		Moves:         moves,
	}
}

func testGameRepository(t *testing.T, newRepo repositoryFactory) {
	t.Run("Save and GetByID round trip", func(t *testing.T) {
		ctx, repo := newRepo(t)

		// Given: a lost game with two moves written at a known time
		writtenAt := time.Date(2024, time.March, 10, 12, 30, 0, 0, time.UTC)
		repo.setNow(writtenAt)

		input := finishedGame("alice", entity.RecordStatusLose,
			entity.Move{X: 0, Y: 0, Outcome: "safe"},
			entity.Move{X: 1, Y: 1, Outcome: "mine"},
		)

		// When: the game is saved and read back
		id, err := repo.Save(ctx, input)
		require.NoError(t, err)

		game, err := repo.GetByID(ctx, id)

		// Then: every field survives and the date is the write time
		require.NoError(t, err)
		assert.Positive(t, id)
		assert.Equal(t, id, game.ID)
		assert.Equal(t, "alice", game.Player)
		assert.Equal(t, 3, game.Size)
		assert.Equal(t, 1, game.Mines)
		assert.Equal(t, []entity.Coordinate{{X: 1, Y: 1}}, game.MinePositions)
		assert.Equal(t, entity.RecordStatusLose, game.Status)
		assert.Equal(t, 2, game.MovesCount)
		assert.True(t, writtenAt.Equal(game.Date), "date %s", game.Date)
	})

	t.Run("Moves come back in move number order", func(t *testing.T) {
		ctx, repo := newRepo(t)

		// Given: a won game with three moves
		input := finishedGame("bob", entity.RecordStatusWin,
			entity.Move{X: 0, Y: 0, Outcome: "safe"},
			entity.Move{X: 2, Y: 2, Outcome: "safe"},
			entity.Move{X: 0, Y: 2, Outcome: "win"},
		)

		id, err := repo.Save(ctx, input)
		require.NoError(t, err)

		// When: the move log is read
		moves, err := repo.Moves(ctx, id)

		// Then: move numbers run from 1 and coordinates match the input order
		require.NoError(t, err)
		require.Len(t, moves, 3)
		for i, move := range moves {
			assert.Equal(t, i+1, move.MoveNumber)
			assert.Equal(t, id, move.GameID)
			assert.Equal(t, input.Moves[i].X, move.X)
			assert.Equal(t, input.Moves[i].Y, move.Y)
			assert.Equal(t, input.Moves[i].Outcome, move.Outcome)
		}
	})

	t.Run("Moves of a game without moves is empty", func(t *testing.T) {
		ctx, repo := newRepo(t)

		// Given: a saved game with an empty log
		id, err := repo.Save(ctx, finishedGame("carol", entity.RecordStatusWin))
		require.NoError(t, err)

		// When: the move log is read
		moves, err := repo.Moves(ctx, id)

		// Then: no moves and no error
		require.NoError(t, err)
		assert.Empty(t, moves)
	})

	t.Run("List is most recent first", func(t *testing.T) {
		ctx, repo := newRepo(t)

		// Given: two games saved at T1 < T2 and a third saved at T2 after them
		t1 := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
		t2 := t1.Add(time.Hour)

		repo.setNow(t1)
		first, err := repo.Save(ctx, finishedGame("alice", entity.RecordStatusWin))
		require.NoError(t, err)

		repo.setNow(t2)
		second, err := repo.Save(ctx, finishedGame("bob", entity.RecordStatusLose))
		require.NoError(t, err)

		third, err := repo.Save(ctx, finishedGame("alice", entity.RecordStatusLose))
		require.NoError(t, err)

		// When: the history is listed
		games, err := repo.List(ctx)

		// Then: later dates come first and equal dates fall back to the newer id
		require.NoError(t, err)
		require.Len(t, games, 3)
		assert.Equal(t, third, games[0].ID)
		assert.Equal(t, second, games[1].ID)
		assert.Equal(t, first, games[2].ID)
	})

	t.Run("ListByPlayer keeps only that player", func(t *testing.T) {
		ctx, repo := newRepo(t)

		// Given: games from two players
		_, err := repo.Save(ctx, finishedGame("alice", entity.RecordStatusWin))
		require.NoError(t, err)
		_, err = repo.Save(ctx, finishedGame("bob", entity.RecordStatusWin))
		require.NoError(t, err)
		_, err = repo.Save(ctx, finishedGame("alice", entity.RecordStatusLose))
		require.NoError(t, err)

		// When: the games of alice are listed
		games, err := repo.ListByPlayer(ctx, "alice")

		// Then: only her two games are returned
		require.NoError(t, err)
		require.Len(t, games, 2)
		for _, game := range games {
			assert.Equal(t, "alice", game.Player)
		}
	})

	t.Run("List of an empty store", func(t *testing.T) {
		ctx, repo := newRepo(t)

		// When: nothing was ever saved
		games, err := repo.List(ctx)

		// Then: an empty history is not an error
		require.NoError(t, err)
		assert.Empty(t, games)
	})

	t.Run("GetByID of unknown game", func(t *testing.T) {
		ctx, repo := newRepo(t)

		// When: an id that was never issued is requested
		game, err := repo.GetByID(ctx, 9999)

		// Then: ErrGameNotFound is returned
		require.ErrorIs(t, err, ErrGameNotFound)
		assert.Nil(t, game)
	})
}
