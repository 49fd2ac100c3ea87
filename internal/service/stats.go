package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crumplecup/strictly-games-sub000/internal/entity"
	"github.com/crumplecup/strictly-games-sub000/internal/repository"
)

const gameTypeTicTacToe = "tictactoe"

// StatsService records finished games into the relational history store
// and answers aggregated win/loss/draw queries.
type StatsService interface {
	RecordResult(ctx context.Context, session *entity.Session, participantID string) error
	AggregatedByName(ctx context.Context, displayName string) (*repository.AggregatedStats, error)
}

type statsService struct {
	logger    *slog.Logger
	statsRepo repository.StatsRepository
}

func NewStatsService(logger *slog.Logger, statsRepo repository.StatsRepository) StatsService {
	return &statsService{
		logger:    logger.With("component", "stats"),
		statsRepo: statsRepo,
	}
}

// RecordResult - records one finished game from the given participant's
// perspective.
func (that *statsService) RecordResult(ctx context.Context, session *entity.Session, participantID string) error {
	participant, ok := session.ParticipantByID(participantID)
	if !ok {
		return fmt.Errorf("participant %s is not in session %s", participantID, session.ID)
	}

	game := session.Game
	if !game.IsOver() {
		return fmt.Errorf("game in session %s is not finished", session.ID)
	}

	outcome := repository.OutcomeDraw
	if game.Outcome != nil && !game.Outcome.Draw {
		if game.Outcome.Winner == participant.Mark {
			outcome = repository.OutcomeWin
		} else {
			outcome = repository.OutcomeLoss
		}
	}

	opponentName := "(unknown)"
	if opponent, ok := session.ParticipantByMark(participant.Mark.Opponent()); ok {
		opponentName = opponent.Name
	}

	user, err := that.statsRepo.GetOrCreateUser(ctx, participant.Name)
	if err != nil {
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	stat := &repository.GameStat{
		UserID:       user.ID,
		OpponentName: opponentName,
		GameType:     gameTypeTicTacToe,
		Outcome:      outcome,
		MovesCount:   len(game.History),
		SessionID:    session.ID,
	}

	if err = that.statsRepo.RecordResult(ctx, stat); err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}

	that.logger.Info("result recorded",
		"sessionID", session.ID, "participant", participant.Name, "outcome", outcome, "moves", stat.MovesCount)

	return nil
}

func (that *statsService) AggregatedByName(ctx context.Context, displayName string) (*repository.AggregatedStats, error) {
	user, err := that.statsRepo.FindUser(ctx, displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	aggregated, err := that.statsRepo.AggregatedFor(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	return aggregated, nil
}
