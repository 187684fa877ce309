package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
)

const (
	actionGameNew     = "game:new"
	actionGameReveal  = "game:reveal"
	actionGameFlag    = "game:flag"
	actionReplayStart = "replay:start"
	actionReplayStop  = "replay:stop"

	eventGameState      = "game:state"
	eventReplayStep     = "replay:step"
	eventReplayFinished = "replay:finished"
	eventError          = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type newGamePayload struct {
	Size   int    `json:"size"`
	Mines  int    `json:"mines"`
	Player string `json:"player"`
}

type cellPayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type replayPayload struct {
	GameID int64 `json:"game_id"`
}

type statePayload struct {
	SessionID   string              `json:"session_id"`
	Outcome     entity.RevealResult `json:"outcome,omitempty"`
	Flag        entity.FlagResult   `json:"flag,omitempty"`
	SavedGameID int64               `json:"saved_game_id,omitempty"`
	Game        *entity.GameView    `json:"game"`
}

type errorPayload struct {
	Action string `json:"action"`
	Error  string `json:"error"`
}

func newMessage(action string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s payload: %w", action, err)
	}

	return Message{Action: action, Payload: raw}, nil
}
