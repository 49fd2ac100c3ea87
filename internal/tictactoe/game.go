package tictactoe

import (
	"fmt"

	"github.com/crumplecup/strictly-games-sub000/internal/apperror"
)

// Phase tags the game life cycle. The tag is part of the entity, checked at
// the single mutation entry point, so phase-inappropriate operations are
// rejected structurally rather than by scattered flag checks.
type Phase string

const (
	PhaseSetup      Phase = "setup"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
)

// Outcome exists only once a game is finished: either a winner or a draw.
type Outcome struct {
	Winner Player `json:"winner,omitempty"`
	Draw   bool   `json:"draw,omitempty"`
}

// Game owns the board, the move history, the whose-turn pointer, and, once
// finished, the terminal outcome.
type Game struct {
	Phase   Phase    `json:"phase"`
	Board   Board    `json:"board"`
	History []Move   `json:"history,omitempty"`
	ToMove  Player   `json:"to_move,omitempty"`
	Outcome *Outcome `json:"outcome,omitempty"`
}

// NewGame - creates a game in the setup phase: empty board, no turn owner.
func NewGame() *Game {
	return &Game{Phase: PhaseSetup}
}

// Start - transitions Setup to InProgress with the given first player.
func (that *Game) Start(firstPlayer Player) error {
	if that.Phase != PhaseSetup {
		return fmt.Errorf("cannot start game in phase %q", that.Phase)
	}

	that.Phase = PhaseInProgress
	that.ToMove = firstPlayer

	return nil
}

// Validate - checks every precondition for the move and returns the proof
// token accepted by Apply. The phase gate runs first, then square emptiness,
// then turn ownership.
func (that *Game) Validate(move Move) (ValidatedMove, error) {
	if err := that.ConfirmInProgress(); err != nil {
		return ValidatedMove{}, err
	}

	if err := SquareEmpty(move, that); err != nil {
		return ValidatedMove{}, err
	}

	if err := PlayerTurn(move, that); err != nil {
		return ValidatedMove{}, err
	}

	return ValidatedMove{move: move}, nil
}

// Apply - the single mutation entry point. It re-evaluates the contract so
// a token validated against stale state cannot corrupt the board, sets the
// square, appends to history, and either flips the turn or transitions to
// Finished. A rejected move leaves the game untouched.
func (that *Game) Apply(validated ValidatedMove) error {
	move := validated.move

	if _, err := that.Validate(move); err != nil {
		return err
	}

	that.Board.Set(move.Position, Square(move.Player))
	that.History = append(that.History, move)

	if winner, ok := that.Board.Winner(); ok {
		that.Phase = PhaseFinished
		that.ToMove = ""
		that.Outcome = &Outcome{Winner: winner}

		return nil
	}

	if that.Board.IsFull() {
		that.Phase = PhaseFinished
		that.ToMove = ""
		that.Outcome = &Outcome{Draw: true}

		return nil
	}

	that.ToMove = move.Player.Opponent()

	return nil
}

// ApplyMove - validates and applies in one step.
func (that *Game) ApplyMove(move Move) error {
	validated, err := that.Validate(move)
	if err != nil {
		return err
	}

	return that.Apply(validated)
}

// ConfirmInProgress - fails unless the game is accepting moves.
func (that *Game) ConfirmInProgress() error {
	switch that.Phase {
	case PhaseSetup:
		return apperror.ErrGameNotStarted
	case PhaseFinished:
		return apperror.ErrGameOver
	case PhaseInProgress:
		return nil
	default:
		return fmt.Errorf("unknown game phase: %q", that.Phase)
	}
}

// IsOver - reports whether the game reached its terminal phase.
func (that *Game) IsOver() bool {
	return that.Phase == PhaseFinished
}

// IsInProgress - reports whether the game is accepting moves.
func (that *Game) IsInProgress() bool {
	return that.Phase == PhaseInProgress
}

// ValidMoves - the currently-legal positions, empty once the game is over.
func (that *Game) ValidMoves() []Position {
	if that.Phase != PhaseInProgress {
		return nil
	}

	return that.Board.EmptyPositions()
}

// Clone - returns an independent deep copy.
func (that *Game) Clone() *Game {
	clone := &Game{
		Phase:  that.Phase,
		Board:  that.Board,
		ToMove: that.ToMove,
	}

	if that.History != nil {
		clone.History = make([]Move, len(that.History))
		copy(clone.History, that.History)
	}

	if that.Outcome != nil {
		outcome := *that.Outcome
		clone.Outcome = &outcome
	}

	return clone
}

// Replay - replays a move sequence from an empty board with X to move
// first, returning the resulting game.
func Replay(moves []Move) (*Game, error) {
	game := NewGame()
	if err := game.Start(PlayerX); err != nil {
		return nil, err
	}

	for i, move := range moves {
		if err := game.ApplyMove(move); err != nil {
			return nil, fmt.Errorf("replay failed at move %d (%s): %w", i, move, err)
		}
	}

	return game, nil
}
