package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/crumplecup/strictly-games-sub000/internal/entity"
	"github.com/crumplecup/strictly-games-sub000/internal/tictactoe"
)

// handleWatch - sends the current session snapshot and then a fresh one on
// every registry change until the connection or context closes.
func (that *Server) handleWatch(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleWatch")

	var payload watchPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := that.sendSnapshot(payload.SessionID, conn); err != nil {
		return err
	}

	go func() {
		for {
			changed := that.sessions.Watch()

			select {
			case <-ctx.Done():
				return
			case <-changed:
			}

			if err := that.sendSnapshot(payload.SessionID, conn); err != nil {
				log.Debug("watcher detached", "sessionID", payload.SessionID, "error", err)
				return
			}
		}
	}()

	return nil
}

// handleTurn - applies a move submitted over the socket and answers with
// the updated snapshot.
func (that *Server) handleTurn(_ context.Context, msg *Message, conn *connection) error {
	var payload turnPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	position, err := tictactoe.ParsePosition(payload.Position)
	if err != nil {
		return err
	}

	err = that.sessions.Mutate(payload.SessionID, func(session *entity.Session) error {
		return session.MakeMove(payload.ParticipantID, position)
	})
	if err != nil {
		return err
	}

	return that.sendSnapshot(payload.SessionID, conn)
}

func (that *Server) sendSnapshot(sessionID string, conn *connection) error {
	session, err := that.sessions.Get(sessionID)
	if err != nil {
		return err
	}

	payload := sessionPayload{
		SessionID:     session.ID,
		CurrentPlayer: string(session.Game.ToMove),
		Phase:         string(session.Game.Phase),
		Moves:         len(session.Game.History),
		Board:         session.Game.Board.Render(),
	}

	if session.SlotX != nil {
		payload.PlayerX = session.SlotX.Name
	}
	if session.SlotO != nil {
		payload.PlayerO = session.SlotO.Name
	}

	return conn.send("session:update", payload)
}
