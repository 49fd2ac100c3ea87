package service

import (
	"context"

	"github.com/crumplecup/strictly-games-sub000/internal/tictactoe"
)

// MoveRequest is the walled-garden view handed to a decision source: only
// the currently-legal positions are offered, so an illegal choice cannot
// even be expressed.
type MoveRequest struct {
	SessionID  string
	Mark       tictactoe.Player
	BoardText  string
	Candidates []tictactoe.Position
}

// DecisionSource produces a move choice from the candidate set. It is
// backed by a human input device or a text-generation call; the arbiter
// does not care which.
type DecisionSource interface {
	ProposeMove(ctx context.Context, req MoveRequest) (tictactoe.Position, error)
}
