package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBufferSize = 256
)

// client is one websocket connection. Only writePump writes to conn.
type client struct {
	conn   *websocket.Conn
	logger *slog.Logger

	send      chan Message
	done      chan struct{}
	closeOnce sync.Once

	mu           sync.Mutex
	sessionID    string
	cancelReplay context.CancelFunc
	replayDone   chan struct{}
}

func newClient(conn *websocket.Conn, logger *slog.Logger) *client {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	return &client{
		conn:   conn,
		logger: logger.With("component", "websocket_client"),
		send:   make(chan Message, sendBufferSize),
		done:   make(chan struct{}),
	}
}

func (that *client) session() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.sessionID
}

func (that *client) setSession(sessionID string) {
	that.mu.Lock()
	that.sessionID = sessionID
	that.mu.Unlock()
}

// emit queues a message for the peer. It gives up once the client is closed.
func (that *client) emit(message Message) {
	select {
	case that.send <- message:
	case <-that.done:
	}
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

func (that *client) writePump() {
	log := that.logger.With("method", "writePump")

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case message := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteJSON(message); err != nil {
				log.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-that.done:
			_ = that.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// startReplay runs play in its own goroutine after stopping the previous
// replay of this connection.
func (that *client) startReplay(parent context.Context, play func(ctx context.Context)) {
	that.stopReplay()

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	that.mu.Lock()
	that.cancelReplay = cancel
	that.replayDone = done
	that.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		play(ctx)
	}()
}

// stopReplay cancels the running replay and waits for it to return.
func (that *client) stopReplay() {
	that.mu.Lock()
	cancel, done := that.cancelReplay, that.replayDone
	that.cancelReplay, that.replayDone = nil, nil
	that.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}
