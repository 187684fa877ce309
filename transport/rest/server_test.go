package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
	"github.com/rocketscienceinc/minesweeper-backend/internal/repository"
	"github.com/rocketscienceinc/minesweeper-backend/internal/usecase"
	"github.com/rocketscienceinc/minesweeper-backend/testing/suite"
)

func newTestServer(t *testing.T) (*httptest.Server, func(record *entity.NewGameRecord) int64) {
	t.Helper()

	ctx, st := suite.NewSQLite(t)
	repo := repository.NewSQLiteGameRepository(st.Storage)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	server := httptest.NewServer(New(logger, usecase.NewGameManager(logger, repo, 30)).Handler())
	t.Cleanup(server.Close)

	save := func(record *entity.NewGameRecord) int64 {
		id, err := repo.Save(ctx, record)
		require.NoError(t, err)
		return id
	}

	return server, save
}

func get(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url) //nolint:noctx // test request
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp.StatusCode
}

func record(player string, status string, moves ...entity.Move) *entity.NewGameRecord {
	return &entity.NewGameRecord{
		Player:        player,
		Size:          3,
		Mines:         1,
		MinePositions: []entity.Coordinate{{X: 1, Y: 1}},
		Status:        status,
		Moves:         moves,
	}
}

func TestServer_Ping(t *testing.T) {
	ts, _ := newTestServer(t)

	// When: the ping endpoint is called
	resp, err := http.Get(ts.URL + "/ping") //nolint:noctx // test request
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)

	// Then: it answers pong
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))
}

func TestServer_ListGames(t *testing.T) {
	t.Run("Empty history", func(t *testing.T) {
		ts, _ := newTestServer(t)

		// When: nothing was played
		var games []*entity.GameRecord
		status := get(t, ts.URL+"/games", &games)

		// Then: an empty list is returned
		assert.Equal(t, http.StatusOK, status)
		assert.NotNil(t, games)
		assert.Empty(t, games)
	})

	t.Run("Lists every game and filters by player", func(t *testing.T) {
		// Given: two games by different players
		ts, save := newTestServer(t)
		first := save(record("alice", entity.RecordStatusWin))
		second := save(record("bob", entity.RecordStatusLose))

		// When: all games and then alice's games are listed
		var all, alice []*entity.GameRecord
		require.Equal(t, http.StatusOK, get(t, ts.URL+"/games", &all))
		require.Equal(t, http.StatusOK, get(t, ts.URL+"/games?player=alice", &alice))

		// Then: both are listed and the filter keeps only alice
		require.Len(t, all, 2)
		assert.ElementsMatch(t, []int64{first, second}, []int64{all[0].ID, all[1].ID})
		require.Len(t, alice, 1)
		assert.Equal(t, first, alice[0].ID)
	})
}

func TestServer_GetGame(t *testing.T) {
	t.Run("Known game with its moves", func(t *testing.T) {
		// Given: a stored loss with two moves
		ts, save := newTestServer(t)
		id := save(record("alice", entity.RecordStatusLose,
			entity.Move{X: 0, Y: 0, Outcome: "safe"},
			entity.Move{X: 1, Y: 1, Outcome: "mine"},
		))

		// When: the game and its moves are requested
		var game, withMoves gameResponse
		url := ts.URL + "/games/" + strconv.FormatInt(id, 10)
		require.Equal(t, http.StatusOK, get(t, url, &game))
		require.Equal(t, http.StatusOK, get(t, url+"/moves", &withMoves))

		// Then: the record and the ordered log are returned
		assert.Equal(t, id, game.Game.ID)
		assert.Equal(t, "alice", game.Game.Player)
		assert.Empty(t, game.Moves)

		require.Len(t, withMoves.Moves, 2)
		assert.Equal(t, 1, withMoves.Moves[0].MoveNumber)
		assert.Equal(t, "mine", withMoves.Moves[1].Outcome)
	})

	t.Run("Unknown game", func(t *testing.T) {
		ts, _ := newTestServer(t)

		// When: a missing game is requested
		status := get(t, ts.URL+"/games/77", nil)
		movesStatus := get(t, ts.URL+"/games/77/moves", nil)

		// Then: both endpoints answer not found
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, http.StatusNotFound, movesStatus)
	})

	t.Run("Invalid id", func(t *testing.T) {
		ts, _ := newTestServer(t)

		// When: the id is not a number
		status := get(t, ts.URL+"/games/abc", nil)

		// Then: the request is rejected
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestServer_PersistenceDisabled(t *testing.T) {
	// Given: a server whose manager has no store
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	server := httptest.NewServer(New(logger, usecase.NewGameManager(logger, nil, 30)).Handler())
	t.Cleanup(server.Close)

	// When: the history is requested
	status := get(t, server.URL+"/games", nil)

	// Then: the service reports it cannot serve history
	assert.Equal(t, http.StatusServiceUnavailable, status)
}
