package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
	"github.com/rocketscienceinc/minesweeper-backend/internal/replay"
	"github.com/rocketscienceinc/minesweeper-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type gameManager interface {
	NewGame(ctx context.Context, sessionID string, size, minesCount int, playerName string) (string, *entity.GameView, error)
	Reveal(ctx context.Context, sessionID string, x, y int) (*usecase.TurnResult, error)
	ToggleFlag(ctx context.Context, sessionID string, x, y int) (entity.FlagResult, *entity.GameView, error)
	EndSession(sessionID string)
}

type replayer interface {
	Start(ctx context.Context, gameID int64, onStep func(replay.Step)) (*replay.Result, error)
}

type handlerFunc func(ctx context.Context, client *client, message *Message) error

type Server struct {
	logger   *slog.Logger
	games    gameManager
	replays  replayer
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, games gameManager, replays replayer) *Server {
	server := &Server{
		logger:  logger.With("component", "websocket"),
		games:   games,
		replays: replays,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionGameNew] = server.handleNewGame
	server.handlers[actionGameReveal] = server.handleReveal
	server.handlers[actionGameFlag] = server.handleFlag
	server.handlers[actionReplayStart] = server.handleReplayStart
	server.handlers[actionReplayStop] = server.handleReplayStop

	return server
}

// Handler serves websocket upgrades on /ws. Connections live until ctx is
// cancelled or the peer goes away.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(ctx),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down WebSocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	log.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	current := newClient(conn, that.logger)
	go current.writePump()

	go func() {
		<-connCtx.Done()
		_ = conn.Close()
	}()

	that.handleMessages(connCtx, current)

	cancel()
	current.close()
	current.stopReplay()

	if sessionID := current.session(); sessionID != "" {
		that.games.EndSession(sessionID)
	}

	log.Info("WebSocket connection closed")
}

// handleMessages - processes messages from the client until it disconnects.
func (that *Server) handleMessages(ctx context.Context, current *client) {
	log := that.logger.With("method", "handleMessages")

	for {
		_, body, err := current.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(body, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.sendError(current, "", "malformed message")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.sendError(current, message.Action, "unknown action")
			continue
		}

		if err = handler(ctx, current, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
			that.sendError(current, message.Action, err.Error())
		}
	}
}

func (that *Server) send(current *client, action string, payload any) {
	message, err := newMessage(action, payload)
	if err != nil {
		that.logger.Error("failed to build message", "error", err)
		return
	}

	current.emit(message)
}

func (that *Server) sendError(current *client, action, reason string) {
	that.send(current, eventError, errorPayload{Action: action, Error: reason})
}
