package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

// client owns one connection. Only writeLoop writes to conn.
type client struct {
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	session     *session.Session
	unsubscribe func()
	release     func()
}

func newClient(conn *websocket.Conn, sessionID string) *client {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	return &client{
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
	}
}

func (that *client) read() ([]byte, error) {
	_, data, err := that.conn.ReadMessage()
	return data, err
}

// attach binds the client to a session and forwards its state changes. release is called when the client
// goes away. A second attach releases the new session and keeps the first.
func (that *client) attach(sess *session.Session, release func()) *session.Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.session != nil {
		release()
		return that.session
	}

	updates, unsubscribe := sess.Subscribe()
	that.session = sess
	that.unsubscribe = unsubscribe
	that.release = release

	go that.forward(updates)

	return sess
}

func (that *client) attached() *session.Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.session
}

func (that *client) forward(updates <-chan entity.Game) {
	for game := range updates {
		that.sendMessage(actionGameState, ResponsePayload{Game: &game})
	}
}

func (that *client) sendMessage(action string, payload ResponsePayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	message, err := json.Marshal(Message{Action: action, Payload: data})
	if err != nil {
		return
	}

	select {
	case that.send <- message:
	case <-that.done:
	}
}

func (that *client) sendError(action, reason string) {
	that.sendMessage(action, ResponsePayload{Error: reason})
}

func (that *client) sendGame(action string, sess *session.Session) {
	game := sess.Snapshot()
	that.sendMessage(action, ResponsePayload{
		Game:       &game,
		TimeLeftMs: sess.TimeLeft().Milliseconds(),
	})
}

func (that *client) writeLoop() error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		that.conn.Close()
	}()

	for {
		select {
		case message := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return err
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-that.done:
			_ = that.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return nil
		}
	}
}

// close detaches from the session. The session stays alive for reconnects until it has been idle too long.
func (that *client) close() {
	that.closeOnce.Do(func() {
		that.mu.Lock()
		if that.unsubscribe != nil {
			that.unsubscribe()
		}
		if that.release != nil {
			that.release()
		}
		that.mu.Unlock()

		close(that.done)
	})
}
