package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/bot"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/service"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/session"
)

const readTimeout = 2 * time.Second

// fakeGames hands out sessions against an instant bot that takes the first free cell and counts attached clients.
type fakeGames struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	clients  map[string]int
}

func (that *fakeGames) AttachSession(_ context.Context, id string) (*session.Session, func(), error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	sess, err := that.sessionLocked(id)
	if err != nil {
		return nil, nil, err
	}

	that.clients[id]++

	return sess, func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		that.clients[id]--
	}, nil
}

func (that *fakeGames) attached(id string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.clients[id]
}

func (that *fakeGames) sessionLocked(id string) (*session.Session, error) {
	if sess, ok := that.sessions[id]; ok {
		return sess, nil
	}

	botService := service.NewBotService(bot.ChooserFunc(func(candidates []int) int {
		return candidates[0]
	}))

	sess, err := session.New(id, entity.Settings{BotEnabled: true, Difficulty: entity.EasyDifficulty},
		session.WithBotService(botService))
	if err != nil {
		return nil, err
	}

	that.sessions[id] = sess

	return sess, nil
}

func (that *fakeGames) close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, sess := range that.sessions {
		sess.Close()
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeGames) {
	t.Helper()

	games := &fakeGames{
		sessions: make(map[string]*session.Session),
		clients:  make(map[string]int),
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	srv := httptest.NewServer(New(logger, games, time.Hour).Handler())
	t.Cleanup(func() {
		srv.Close()
		games.close()
	})

	return srv, games
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response) {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn, resp
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = data
	}

	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: raw}))
}

// receive reads until a message with action arrives.
func receive(t *testing.T, conn *websocket.Conn, action string) ResponsePayload {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	for {
		var message Message
		require.NoError(t, conn.ReadJSON(&message))

		if message.Action != action {
			continue
		}

		var payload ResponsePayload
		require.NoError(t, json.Unmarshal(message.Payload, &payload))

		return payload
	}
}

func TestServer_Connect(t *testing.T) {
	t.Run("Sets a session cookie and returns a fresh game", func(t *testing.T) {
		// Given: A client without a cookie
		srv, games := newTestServer(t)
		conn, resp := dial(t, srv, nil)

		// When: Sending connect
		send(t, conn, actionConnect, nil)
		payload := receive(t, conn, actionConnect)

		// Then: A cookie is issued and the game belongs to it
		var sessionID string
		for _, cookie := range resp.Cookies() {
			if cookie.Name == sessionCookie {
				sessionID = cookie.Value
			}
		}
		require.NotEmpty(t, sessionID)

		require.NotNil(t, payload.Game)
		assert.Equal(t, sessionID, payload.Game.ID)
		assert.Empty(t, payload.Game.Moves)

		games.mu.Lock()
		assert.Contains(t, games.sessions, sessionID)
		games.mu.Unlock()
	})

	t.Run("Reuses the session from the cookie", func(t *testing.T) {
		// Given: A game in progress under a known cookie
		srv, _ := newTestServer(t)
		header := http.Header{}
		header.Add("Cookie", sessionCookie+"=client-1")

		first, _ := dial(t, srv, header)
		send(t, first, actionConnect, nil)
		receive(t, first, actionConnect)
		send(t, first, actionGameTurn, TurnPayload{Cell: ptr(4)})
		receive(t, first, actionGameTurn)

		// When: Reconnecting with the same cookie
		second, _ := dial(t, srv, header)
		send(t, second, actionConnect, nil)
		payload := receive(t, second, actionConnect)

		// Then: The game continues
		require.NotNil(t, payload.Game)
		assert.Equal(t, "client-1", payload.Game.ID)
		assert.Equal(t, []int{4, 0}, payload.Game.Moves)
	})

	t.Run("Disconnect releases the session", func(t *testing.T) {
		// Given: A connected client
		srv, games := newTestServer(t)
		header := http.Header{}
		header.Add("Cookie", sessionCookie+"=client-1")

		conn, _ := dial(t, srv, header)
		send(t, conn, actionConnect, nil)
		receive(t, conn, actionConnect)
		send(t, conn, actionConnect, nil)
		receive(t, conn, actionConnect)
		require.Equal(t, 1, games.attached("client-1"))

		// When: The connection goes away
		require.NoError(t, conn.Close())

		// Then: The session is no longer held
		require.Eventually(t, func() bool { return games.attached("client-1") == 0 }, readTimeout, 10*time.Millisecond)
	})
}

func TestServer_GameActions(t *testing.T) {
	t.Run("Turn is answered by the bot and pushed as state", func(t *testing.T) {
		// Given: A connected client
		srv, _ := newTestServer(t)
		conn, _ := dial(t, srv, nil)
		send(t, conn, actionConnect, nil)
		receive(t, conn, actionConnect)

		// When: Playing the center
		send(t, conn, actionGameTurn, TurnPayload{Cell: ptr(4)})

		// Then: The acknowledgement carries both moves
		payload := receive(t, conn, actionGameTurn)
		require.NotNil(t, payload.Game)
		assert.Equal(t, []int{4, 0}, payload.Game.Moves)
		assert.Equal(t, entity.PlayerX, payload.Game.Turn)

		// And: The state push arrives as well
		state := receive(t, conn, actionGameState)
		require.NotNil(t, state.Game)
		assert.Equal(t, []int{4, 0}, state.Game.Moves)
	})

	t.Run("Rejected turn returns an error", func(t *testing.T) {
		srv, _ := newTestServer(t)
		conn, _ := dial(t, srv, nil)
		send(t, conn, actionConnect, nil)
		receive(t, conn, actionConnect)

		send(t, conn, actionGameTurn, TurnPayload{Cell: ptr(9)})
		payload := receive(t, conn, actionGameTurn)

		assert.Contains(t, payload.Error, "invalid cell")
		assert.Nil(t, payload.Game)
	})

	t.Run("Reset empties the board", func(t *testing.T) {
		srv, _ := newTestServer(t)
		conn, _ := dial(t, srv, nil)
		send(t, conn, actionConnect, nil)
		receive(t, conn, actionConnect)
		send(t, conn, actionGameTurn, TurnPayload{Cell: ptr(4)})
		receive(t, conn, actionGameTurn)

		send(t, conn, actionGameReset, nil)
		payload := receive(t, conn, actionGameReset)

		require.NotNil(t, payload.Game)
		assert.Empty(t, payload.Game.Moves)
	})

	t.Run("Settings are validated and applied", func(t *testing.T) {
		srv, _ := newTestServer(t)
		conn, _ := dial(t, srv, nil)
		send(t, conn, actionConnect, nil)
		receive(t, conn, actionConnect)

		send(t, conn, actionGameSettings, SettingsPayload{Settings: &entity.Settings{Difficulty: 9}})
		rejected := receive(t, conn, actionGameSettings)
		assert.NotEmpty(t, rejected.Error)

		settings := entity.Settings{BotEnabled: true, BotPlaysFirst: true, Difficulty: entity.HardDifficulty}
		send(t, conn, actionGameSettings, SettingsPayload{Settings: &settings})
		payload := receive(t, conn, actionGameSettings)

		require.NotNil(t, payload.Game)
		assert.Equal(t, settings, payload.Game.Settings)
		assert.Len(t, payload.Game.Moves, 1)
		assert.Equal(t, entity.PlayerO, payload.Game.Turn)
	})

	t.Run("Actions before connect are refused", func(t *testing.T) {
		srv, _ := newTestServer(t)
		conn, _ := dial(t, srv, nil)

		send(t, conn, actionGameReset, nil)
		payload := receive(t, conn, actionGameReset)

		assert.Equal(t, errNotConnected.Error(), payload.Error)
	})

	t.Run("Unknown actions are refused", func(t *testing.T) {
		srv, _ := newTestServer(t)
		conn, _ := dial(t, srv, nil)

		send(t, conn, "game:join", nil)
		payload := receive(t, conn, "game:join")

		assert.Equal(t, errUnknownAction.Error(), payload.Error)
	})
}

func ptr(v int) *int {
	return &v
}
