package service

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/crumplecup/strictly-games-sub000/internal/apperror"
	"github.com/crumplecup/strictly-games-sub000/internal/tictactoe"
)

// BotSource is a decision source that picks a uniformly random candidate.
type BotSource struct{}

func NewBotSource() *BotSource {
	return &BotSource{}
}

func (that *BotSource) ProposeMove(_ context.Context, req MoveRequest) (tictactoe.Position, error) {
	if len(req.Candidates) == 0 {
		return "", fmt.Errorf("%w: session %s", apperror.ErrNoLegalMovesAvailable, req.SessionID)
	}

	chosen := req.Candidates[rand.Intn(len(req.Candidates))] //nolint: gosec // it's ok

	return chosen, nil
}
