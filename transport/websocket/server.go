package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crumplecup/strictly-games-sub000/internal/registry"
)

const writeTimeout = 10 * time.Second

// Server pushes live session snapshots to watchers and accepts move
// submissions over a websocket connection.
type Server struct {
	logger   *slog.Logger
	sessions *registry.Registry
	upgrader websocket.Upgrader

	handlers map[string]func(ctx context.Context, msg *Message, conn *connection) error
}

// connection serializes writes; gorilla connections allow one concurrent
// writer only.
type connection struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (that *connection) send(action string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	_ = that.conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	if err = that.conn.WriteJSON(Message{Action: action, Payload: raw}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func New(logger *slog.Logger, sessions *registry.Registry) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},

		handlers: make(map[string]func(context.Context, *Message, *connection) error),
	}

	server.handlers["session:watch"] = server.handleWatch
	server.handlers["game:turn"] = server.handleTurn

	return server
}

// Start - starts the websocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	wsConn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	defer wsConn.Close()

	log.Info("websocket connection established", "remote", wsConn.RemoteAddr())

	conn := &connection{conn: wsConn}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for {
		var message Message
		if err = wsConn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}

			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			_ = conn.send("error", errorPayload{Error: fmt.Sprintf("unknown action %q", message.Action)})
			continue
		}

		if err = handler(connCtx, &message, conn); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)

			_ = conn.send("error", errorPayload{Error: err.Error()})
		}
	}
}
