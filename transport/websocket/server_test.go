package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/minesweeper-backend/internal/apperror"
	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
	"github.com/rocketscienceinc/minesweeper-backend/internal/replay"
	"github.com/rocketscienceinc/minesweeper-backend/internal/repository"
	"github.com/rocketscienceinc/minesweeper-backend/internal/usecase"
	"github.com/rocketscienceinc/minesweeper-backend/testing/suite"
)

const readTimeout = 5 * time.Second

type testEnv struct {
	url     string
	ctx     context.Context
	repo    *repository.SQLiteGameRepository
	manager *usecase.GameManager
}

func newTestEnv(t *testing.T, pace time.Duration) *testEnv {
	t.Helper()

	ctx, st := suite.NewSQLite(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	repo := repository.NewSQLiteGameRepository(st.Storage)
	manager := usecase.NewGameManager(logger, repo, 30)
	driver := replay.NewDriver(logger, repo, pace)

	serverCtx, cancel := context.WithCancel(ctx)
	server := httptest.NewServer(New(logger, manager, driver).Handler(serverCtx))
	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	return &testEnv{
		url:     "ws" + strings.TrimPrefix(server.URL, "http") + "/ws",
		ctx:     ctx,
		repo:    repo,
		manager: manager,
	}
}

func (that *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(that.url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}

func sendAction(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: raw}))
}

func readMessage(t *testing.T, conn *websocket.Conn, out any) string {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	var message Message
	require.NoError(t, conn.ReadJSON(&message))

	if out != nil {
		require.NoError(t, json.Unmarshal(message.Payload, out))
	}

	return message.Action
}

func TestServer_Game(t *testing.T) {
	t.Run("New game opens a session", func(t *testing.T) {
		env := newTestEnv(t, 0)
		conn := env.dial(t)

		// When: a game is requested
		sendAction(t, conn, actionGameNew, newGamePayload{Size: 9, Mines: 10, Player: "alice"})

		// Then: the masked state of a new game comes back
		var state statePayload
		require.Equal(t, eventGameState, readMessage(t, conn, &state))
		assert.NotEmpty(t, state.SessionID)
		assert.Equal(t, 9, state.Game.Size)
		assert.Equal(t, entity.StatusActive, state.Game.Status)
		assert.Len(t, state.Game.Cells, 9)
	})

	t.Run("Invalid board is reported", func(t *testing.T) {
		env := newTestEnv(t, 0)
		conn := env.dial(t)

		// When: the board has more mines than cells
		sendAction(t, conn, actionGameNew, newGamePayload{Size: 3, Mines: 9, Player: "alice"})

		// Then: an error names the action
		var failure errorPayload
		require.Equal(t, eventError, readMessage(t, conn, &failure))
		assert.Equal(t, actionGameNew, failure.Action)
		assert.Contains(t, failure.Error, apperror.ErrInvalidBoard.Error())
	})

	t.Run("Reveal without a game", func(t *testing.T) {
		env := newTestEnv(t, 0)
		conn := env.dial(t)

		// When: a cell is revealed before any game was started
		sendAction(t, conn, actionGameReveal, cellPayload{X: 0, Y: 0})

		// Then: the session is unknown
		var failure errorPayload
		require.Equal(t, eventError, readMessage(t, conn, &failure))
		assert.Contains(t, failure.Error, apperror.ErrSessionNotFound.Error())
	})

	t.Run("A finishing reveal saves the game", func(t *testing.T) {
		// Given: a 2x2 board with three mines, so the first reveal ends it
		env := newTestEnv(t, 0)
		conn := env.dial(t)

		sendAction(t, conn, actionGameNew, newGamePayload{Size: 2, Mines: 3, Player: "alice"})
		require.Equal(t, eventGameState, readMessage(t, conn, nil))

		// When: a corner is revealed
		sendAction(t, conn, actionGameReveal, cellPayload{X: 0, Y: 0})

		// Then: the game ended and was stored
		var state statePayload
		require.Equal(t, eventGameState, readMessage(t, conn, &state))
		assert.Contains(t, []entity.RevealResult{entity.RevealMine, entity.RevealWin}, state.Outcome)
		assert.Positive(t, state.SavedGameID)

		stored, err := env.repo.GetByID(env.ctx, state.SavedGameID)
		require.NoError(t, err)
		assert.Equal(t, "alice", stored.Player)
		assert.Equal(t, 1, stored.MovesCount)
	})

	t.Run("Flag toggles a cell", func(t *testing.T) {
		env := newTestEnv(t, 0)
		conn := env.dial(t)

		sendAction(t, conn, actionGameNew, newGamePayload{Size: 5, Mines: 3, Player: "alice"})
		require.Equal(t, eventGameState, readMessage(t, conn, nil))

		// When: a cell is flagged
		sendAction(t, conn, actionGameFlag, cellPayload{X: 2, Y: 3})

		// Then: the flag is added to the view
		var state statePayload
		require.Equal(t, eventGameState, readMessage(t, conn, &state))
		assert.Equal(t, entity.FlagAdded, state.Flag)
		assert.True(t, state.Game.Cells[2][3].Flagged)
	})

	t.Run("Bad messages keep the connection open", func(t *testing.T) {
		env := newTestEnv(t, 0)
		conn := env.dial(t)

		// When: garbage and an unknown action are sent
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		sendAction(t, conn, "game:teleport", struct{}{})

		// Then: both are answered with errors and the connection still works
		require.Equal(t, eventError, readMessage(t, conn, nil))

		var failure errorPayload
		require.Equal(t, eventError, readMessage(t, conn, &failure))
		assert.Equal(t, "game:teleport", failure.Action)

		sendAction(t, conn, actionGameNew, newGamePayload{Size: 3, Mines: 1, Player: "alice"})
		require.Equal(t, eventGameState, readMessage(t, conn, nil))
	})

	t.Run("Disconnect ends the session", func(t *testing.T) {
		env := newTestEnv(t, 0)
		conn := env.dial(t)

		sendAction(t, conn, actionGameNew, newGamePayload{Size: 3, Mines: 1, Player: "alice"})

		var state statePayload
		require.Equal(t, eventGameState, readMessage(t, conn, &state))

		// When: the client goes away
		require.NoError(t, conn.Close())

		// Then: its game is dropped
		assert.Eventually(t, func() bool {
			_, err := env.manager.Game(state.SessionID)
			return err != nil
		}, readTimeout, 10*time.Millisecond)
	})
}

func TestServer_Replay(t *testing.T) {
	storedWin := &entity.NewGameRecord{
		Player:        "alice",
		Size:          2,
		Mines:         1,
		MinePositions: []entity.Coordinate{{X: 0, Y: 0}},
		Status:        entity.RecordStatusWin,
		Moves: []entity.Move{
			{X: 0, Y: 1, Outcome: "safe"},
			{X: 1, Y: 0, Outcome: "safe"},
			{X: 1, Y: 1, Outcome: "win"},
		},
	}

	t.Run("Streams every step and the result", func(t *testing.T) {
		// Given: a stored win
		env := newTestEnv(t, 0)
		id, err := env.repo.Save(env.ctx, storedWin)
		require.NoError(t, err)

		conn := env.dial(t)

		// When: its replay is requested
		sendAction(t, conn, actionReplayStart, replayPayload{GameID: id})

		// Then: three steps and a matching result arrive in order
		for i := 1; i <= 3; i++ {
			var step replay.Step
			require.Equal(t, eventReplayStep, readMessage(t, conn, &step))
			assert.Equal(t, i, step.MoveNumber)
		}

		var result replay.Result
		require.Equal(t, eventReplayFinished, readMessage(t, conn, &result))
		assert.Equal(t, id, result.GameID)
		assert.Equal(t, entity.RecordStatusWin, result.Outcome)
		assert.True(t, result.Matches)
	})

	t.Run("Unknown game", func(t *testing.T) {
		env := newTestEnv(t, 0)
		conn := env.dial(t)

		// When: a replay of a missing game is requested
		sendAction(t, conn, actionReplayStart, replayPayload{GameID: 404})

		// Then: the replay is refused
		var failure errorPayload
		require.Equal(t, eventError, readMessage(t, conn, &failure))
		assert.Equal(t, actionReplayStart, failure.Action)
		assert.Contains(t, failure.Error, apperror.ErrReplayUnavailable.Error())
	})

	t.Run("Stop cancels the replay", func(t *testing.T) {
		// Given: a replay paced far slower than the test
		env := newTestEnv(t, time.Hour)
		id, err := env.repo.Save(env.ctx, storedWin)
		require.NoError(t, err)

		conn := env.dial(t)

		sendAction(t, conn, actionReplayStart, replayPayload{GameID: id})
		require.Equal(t, eventReplayStep, readMessage(t, conn, nil))

		// When: it is stopped and a new game is started
		sendAction(t, conn, actionReplayStop, struct{}{})
		sendAction(t, conn, actionGameNew, newGamePayload{Size: 3, Mines: 1, Player: "alice"})

		// Then: the next message is the new game, not the rest of the replay
		require.Equal(t, eventGameState, readMessage(t, conn, nil))
	})
}
