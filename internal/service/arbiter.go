package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crumplecup/strictly-games-sub000/internal/apperror"
	"github.com/crumplecup/strictly-games-sub000/internal/entity"
	"github.com/crumplecup/strictly-games-sub000/internal/pkg"
	"github.com/crumplecup/strictly-games-sub000/internal/registry"
	"github.com/crumplecup/strictly-games-sub000/internal/tictactoe"
)

const (
	defaultPollInterval = time.Second
	defaultMaxPolls     = 300

	maxProposeAttempts = 5
)

// errStaleCandidate marks a choice invalidated by a concurrent move
// between elicitation and application. It is a local retry condition, not
// an error surfaced to the caller.
var errStaleCandidate = errors.New("candidate went stale")

// GameReport is the terminal outcome of one arbitration run.
type GameReport struct {
	SessionID string           `json:"session_id"`
	Mark      tictactoe.Player `json:"mark"`
	Outcome   string           `json:"outcome"`
	Moves     int              `json:"moves"`
	Summary   string           `json:"summary"`
}

// ArbiterService drives an automated participant through a session: it
// registers the participant, waits out the opponent's turns, elicits moves
// from a decision source over the filtered legal set, and applies them
// until the game ends.
type ArbiterService interface {
	PlayGame(ctx context.Context, sessionID, playerName string, source DecisionSource) (*GameReport, error)
}

type arbiterService struct {
	logger   *slog.Logger
	sessions *registry.Registry
	stats    StatsService

	pollInterval time.Duration
	maxPolls     int
}

// NewArbiterService - stats may be nil when no history store is wired
// (recording is a collaborator concern, not part of the loop's contract).
func NewArbiterService(logger *slog.Logger, sessions *registry.Registry, stats StatsService) ArbiterService {
	return &arbiterService{
		logger:       logger.With("component", "arbiter"),
		sessions:     sessions,
		stats:        stats,
		pollInterval: defaultPollInterval,
		maxPolls:     defaultMaxPolls,
	}
}

func (that *arbiterService) PlayGame(ctx context.Context, sessionID, playerName string, source DecisionSource) (*GameReport, error) {
	log := that.logger.With("method", "PlayGame", "sessionID", sessionID, "player", playerName)

	participantID := pkg.ParticipantID(sessionID, playerName)

	mark, err := that.ensureRegistered(sessionID, participantID, playerName)
	if err != nil {
		return nil, fmt.Errorf("failed to register participant: %w", err)
	}

	log.Info("participant registered, entering arbitration loop", "mark", mark)

	for {
		if err = ctx.Err(); err != nil {
			return nil, fmt.Errorf("arbitration canceled: %w", err)
		}

		session, err := that.sessions.Get(sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}

		if session.Game.IsOver() {
			return that.report(ctx, session, participantID, mark), nil
		}

		if !session.IsParticipantsTurn(participantID) {
			if err = that.waitForTurn(ctx, sessionID, participantID); err != nil {
				return nil, err
			}

			continue
		}

		if err = that.elicitAndApply(ctx, session, participantID, mark, source); err != nil {
			return nil, err
		}
	}
}

// ensureRegistered - registers atomically; a repeat call for the same
// participant resumes with the mark it already holds.
func (that *arbiterService) ensureRegistered(sessionID, participantID, playerName string) (tictactoe.Player, error) {
	if _, err := that.sessions.Create(sessionID); err != nil && !errors.Is(err, apperror.ErrSessionAlreadyExists) {
		return "", err
	}

	mark, err := that.sessions.RegisterAtomic(sessionID, participantID, playerName, entity.KindAgent)
	if err == nil {
		return mark, nil
	}

	if !errors.Is(err, apperror.ErrSlotsFull) {
		return "", err
	}

	session, getErr := that.sessions.Get(sessionID)
	if getErr != nil {
		return "", getErr
	}

	if participant, ok := session.ParticipantByID(participantID); ok {
		return participant.Mark, nil
	}

	return "", err
}

// waitForTurn - blocks until the game ends, it becomes the participant's
// turn, the wait bound elapses, or the context is canceled. Wakeups come
// from the registry change broadcast, with the poll ticker as a fallback.
func (that *arbiterService) waitForTurn(ctx context.Context, sessionID, participantID string) error {
	log := that.logger.With("method", "waitForTurn", "sessionID", sessionID)

	ticker := time.NewTicker(that.pollInterval)
	defer ticker.Stop()

	deadline := time.Now().Add(time.Duration(that.maxPolls) * that.pollInterval)

	for {
		changed := that.sessions.Watch()

		session, err := that.sessions.Get(sessionID)
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}

		if session.Game.IsOver() || session.IsParticipantsTurn(participantID) {
			return nil
		}

		if time.Now().After(deadline) {
			log.Warn("opponent wait bound elapsed")
			return fmt.Errorf("%w: session %s", apperror.ErrOpponentWaitTimedOut, sessionID)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("arbitration canceled: %w", ctx.Err())
		case <-changed:
		case <-ticker.C:
		}
	}
}

// elicitAndApply - runs one walled-garden elicitation round: offer the
// filtered candidates, obtain a choice, defensively re-validate it against
// live state, and apply it. A stale choice discards the round; the outer
// loop re-fetches and retries.
func (that *arbiterService) elicitAndApply(ctx context.Context, session *entity.Session, participantID string, mark tictactoe.Player, source DecisionSource) error {
	log := that.logger.With("method", "elicitAndApply", "sessionID", session.ID, "mark", mark)

	candidates := session.Game.ValidMoves()
	if len(candidates) == 0 {
		// Unreachable given win/draw detection, handled defensively.
		return fmt.Errorf("%w: session %s", apperror.ErrNoLegalMovesAvailable, session.ID)
	}

	req := MoveRequest{
		SessionID:  session.ID,
		Mark:       mark,
		BoardText:  session.Game.Board.Render(),
		Candidates: candidates,
	}

	for attempt := 1; attempt <= maxProposeAttempts; attempt++ {
		position, err := that.propose(ctx, source, req)
		if err != nil {
			if attempt == maxProposeAttempts {
				return fmt.Errorf("failed to elicit move after %d attempts: %w", attempt, err)
			}

			log.Warn("move proposal rejected, retrying", "attempt", attempt, "error", err)

			continue
		}

		err = that.sessions.Mutate(session.ID, func(live *entity.Session) error {
			if live.Game.IsOver() || !live.IsParticipantsTurn(participantID) || !live.Game.Board.IsEmpty(position) {
				return errStaleCandidate
			}

			return live.MakeMove(participantID, position)
		})

		switch {
		case err == nil:
			log.Info("move applied", "position", position, "attempt", attempt)
			return nil
		case errors.Is(err, errStaleCandidate):
			log.Debug("candidate went stale, re-entering loop", "position", position)
			return nil
		default:
			// The choice passed filtering and the defensive re-check yet
			// the state machine rejected it: a programming-error signal.
			return fmt.Errorf("validated move rejected by state machine: %w", err)
		}
	}

	return fmt.Errorf("failed to elicit move after %d attempts", maxProposeAttempts)
}

// propose - asks the decision source and enforces the closed menu: a
// choice outside the candidate set is rejected here, not by the game.
func (that *arbiterService) propose(ctx context.Context, source DecisionSource, req MoveRequest) (tictactoe.Position, error) {
	position, err := source.ProposeMove(ctx, req)
	if err != nil {
		return "", err
	}

	for _, candidate := range req.Candidates {
		if candidate == position {
			return position, nil
		}
	}

	return "", fmt.Errorf("position %s is not among the offered candidates", position)
}

// report - renders the terminal outcome and records it in the history
// store when one is wired.
func (that *arbiterService) report(ctx context.Context, session *entity.Session, participantID string, mark tictactoe.Player) *GameReport {
	log := that.logger.With("method", "report", "sessionID", session.ID)

	game := session.Game

	outcome := "draw"
	summary := "Game over! It's a draw."
	if game.Outcome != nil && !game.Outcome.Draw {
		if game.Outcome.Winner == mark {
			outcome = "win"
			summary = "Game over! You win!"
		} else {
			outcome = "loss"
			summary = "Game over! Opponent wins."
		}
	}

	if that.stats != nil {
		if err := that.stats.RecordResult(ctx, session, participantID); err != nil {
			log.Error("failed to record result", "error", err)
		}
	}

	log.Info("game finished", "outcome", outcome, "moves", len(game.History))

	return &GameReport{
		SessionID: session.ID,
		Mark:      mark,
		Outcome:   outcome,
		Moves:     len(game.History),
		Summary:   fmt.Sprintf("%s\n\n%s", summary, game.Board.Render()),
	}
}
