package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crumplecup/strictly-games-sub000/internal/entity"
	"github.com/crumplecup/strictly-games-sub000/internal/registry"
)

type socketFixture struct {
	sessions *registry.Registry
	client   *websocket.Conn
}

func newSocketFixture(t *testing.T) *socketFixture {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	sessions := registry.New(logger)
	server := New(logger, sessions)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.serveConnection(ctx, w, r)
	}))
	t.Cleanup(httpServer.Close)

	url := "ws" + strings.TrimPrefix(httpServer.URL, "http")

	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})

	return &socketFixture{sessions: sessions, client: client}
}

func (that *socketFixture) send(t *testing.T, action string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	require.NoError(t, that.client.WriteJSON(Message{Action: action, Payload: raw}))
}

func (that *socketFixture) receive(t *testing.T) (string, json.RawMessage) {
	t.Helper()

	require.NoError(t, that.client.SetReadDeadline(time.Now().Add(5*time.Second)))

	var message Message
	require.NoError(t, that.client.ReadJSON(&message))

	return message.Action, message.Payload
}

func registerPair(t *testing.T, sessions *registry.Registry, sessionID string) {
	t.Helper()

	_, err := sessions.Create(sessionID)
	require.NoError(t, err)

	for _, name := range []string{"Alice", "Bob"} {
		id := sessionID + "_" + strings.ToLower(name)
		_, err = sessions.RegisterAtomic(sessionID, id, name, entity.KindHuman)
		require.NoError(t, err)
	}
}

func TestSocket_Watch(t *testing.T) {
	t.Run("A watcher receives the current snapshot and every change", func(t *testing.T) {
		// Given: a ready session with a connected watcher
		f := newSocketFixture(t)
		registerPair(t, f.sessions, "room-1")

		f.send(t, "session:watch", watchPayload{SessionID: "room-1"})

		action, raw := f.receive(t)
		require.Equal(t, "session:update", action)

		var snapshot sessionPayload
		require.NoError(t, json.Unmarshal(raw, &snapshot))
		assert.Equal(t, "room-1", snapshot.SessionID)
		assert.Equal(t, "Alice", snapshot.PlayerX)
		assert.Equal(t, "Bob", snapshot.PlayerO)
		assert.Equal(t, 0, snapshot.Moves)

		// When: a move lands through the registry
		require.NoError(t, f.sessions.Mutate("room-1", func(session *entity.Session) error {
			return session.MakeMove("room-1_alice", "center")
		}))

		// Then: a fresh snapshot arrives
		action, raw = f.receive(t)
		require.Equal(t, "session:update", action)
		require.NoError(t, json.Unmarshal(raw, &snapshot))
		assert.Equal(t, 1, snapshot.Moves)
		assert.Equal(t, "O", snapshot.CurrentPlayer)
		assert.Contains(t, snapshot.Board, "X")
	})

	t.Run("Watching an unknown session answers with an error", func(t *testing.T) {
		f := newSocketFixture(t)

		f.send(t, "session:watch", watchPayload{SessionID: "nowhere"})

		action, raw := f.receive(t)
		require.Equal(t, "error", action)

		var failure errorPayload
		require.NoError(t, json.Unmarshal(raw, &failure))
		assert.Contains(t, failure.Error, "nowhere")
	})
}

func TestSocket_Turn(t *testing.T) {
	t.Run("A submitted move is applied and the snapshot answered", func(t *testing.T) {
		f := newSocketFixture(t)
		registerPair(t, f.sessions, "room-1")

		f.send(t, "game:turn", turnPayload{
			SessionID:     "room-1",
			ParticipantID: "room-1_alice",
			Position:      "center",
		})

		action, raw := f.receive(t)
		require.Equal(t, "session:update", action)

		var snapshot sessionPayload
		require.NoError(t, json.Unmarshal(raw, &snapshot))
		assert.Equal(t, 1, snapshot.Moves)

		stored, err := f.sessions.Get("room-1")
		require.NoError(t, err)
		assert.Len(t, stored.Game.History, 1)
	})

	t.Run("A rejected move is answered with an error and applies nothing", func(t *testing.T) {
		f := newSocketFixture(t)
		registerPair(t, f.sessions, "room-1")

		f.send(t, "game:turn", turnPayload{
			SessionID:     "room-1",
			ParticipantID: "room-1_bob",
			Position:      "center",
		})

		action, raw := f.receive(t)
		require.Equal(t, "error", action)

		var failure errorPayload
		require.NoError(t, json.Unmarshal(raw, &failure))
		assert.Contains(t, failure.Error, "waiting for X")

		stored, err := f.sessions.Get("room-1")
		require.NoError(t, err)
		assert.Empty(t, stored.Game.History)
	})
}

func TestSocket_UnknownAction(t *testing.T) {
	f := newSocketFixture(t)

	f.send(t, "game:quit", struct{}{})

	action, raw := f.receive(t)
	require.Equal(t, "error", action)

	var failure errorPayload
	require.NoError(t, json.Unmarshal(raw, &failure))
	assert.Contains(t, failure.Error, "game:quit")
}
