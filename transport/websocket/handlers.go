package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/minesweeper-backend/internal/apperror"
	"github.com/rocketscienceinc/minesweeper-backend/internal/replay"
)

func (that *Server) handleNewGame(ctx context.Context, current *client, msg *Message) error {
	var payload newGamePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	sessionID, view, err := that.games.NewGame(ctx, current.session(), payload.Size, payload.Mines, payload.Player)
	if err != nil {
		return err
	}

	current.setSession(sessionID)

	that.send(current, eventGameState, statePayload{SessionID: sessionID, Game: view})

	return nil
}

func (that *Server) handleReveal(ctx context.Context, current *client, msg *Message) error {
	var payload cellPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	sessionID := current.session()

	result, err := that.games.Reveal(ctx, sessionID, payload.X, payload.Y)
	if result != nil {
		that.send(current, eventGameState, statePayload{
			SessionID:   sessionID,
			Outcome:     result.Outcome,
			SavedGameID: result.SavedGameID,
			Game:        result.Game,
		})
	}

	if errors.Is(err, apperror.ErrSaveFailed) {
		return apperror.ErrSaveFailed
	}

	return err
}

func (that *Server) handleFlag(ctx context.Context, current *client, msg *Message) error {
	var payload cellPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	sessionID := current.session()

	flag, view, err := that.games.ToggleFlag(ctx, sessionID, payload.X, payload.Y)
	if err != nil {
		return err
	}

	that.send(current, eventGameState, statePayload{SessionID: sessionID, Flag: flag, Game: view})

	return nil
}

// handleReplayStart plays a stored game back to this connection. A running
// replay is cancelled first.
func (that *Server) handleReplayStart(ctx context.Context, current *client, msg *Message) error {
	var payload replayPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	log := that.logger.With("method", "handleReplayStart", "game_id", payload.GameID)

	current.startReplay(ctx, func(ctx context.Context) {
		result, err := that.replays.Start(ctx, payload.GameID, func(step replay.Step) {
			that.send(current, eventReplayStep, step)
		})
		if errors.Is(err, context.Canceled) {
			log.Debug("replay cancelled")
			return
		}

		if err != nil {
			log.Warn("replay failed", "error", err)
			that.sendError(current, actionReplayStart, err.Error())
			return
		}

		that.send(current, eventReplayFinished, result)
	})

	return nil
}

func (that *Server) handleReplayStop(_ context.Context, current *client, _ *Message) error {
	current.stopReplay()

	return nil
}
