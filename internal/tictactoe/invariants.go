package tictactoe

import (
	"errors"
	"fmt"
)

// Invariant checkers re-derive the structural properties of a game from
// scratch. They are property witnesses for the test suite, never required
// on the serving path.

var (
	ErrReplayDiverged       = errors.New("replaying history does not reproduce the board")
	ErrAlternationViolated  = errors.New("history does not strictly alternate players")
	ErrHistoryBoardMismatch = errors.New("history length does not match occupied squares")
)

// CheckReplayConsistent - I1: replaying the history from an empty board
// reproduces the board, the turn pointer, and the phase exactly.
func CheckReplayConsistent(game *Game) error {
	if game.Phase == PhaseSetup {
		if len(game.History) != 0 || game.Board.OccupiedCount() != 0 {
			return fmt.Errorf("%w: setup game carries state", ErrReplayDiverged)
		}

		return nil
	}

	replayed, err := Replay(game.History)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReplayDiverged, err)
	}

	if replayed.Board != game.Board {
		return fmt.Errorf("%w: board mismatch", ErrReplayDiverged)
	}

	if replayed.ToMove != game.ToMove {
		return fmt.Errorf("%w: to_move %q, replayed %q", ErrReplayDiverged, game.ToMove, replayed.ToMove)
	}

	if replayed.Phase != game.Phase {
		return fmt.Errorf("%w: phase %q, replayed %q", ErrReplayDiverged, game.Phase, replayed.Phase)
	}

	return nil
}

// CheckStrictAlternation - I2: the first move is X's, no two consecutive
// moves share a player, and the turn pointer matches the history length.
func CheckStrictAlternation(game *Game) error {
	for i, move := range game.History {
		expected := PlayerX
		if i%2 == 1 {
			expected = PlayerO
		}

		if move.Player != expected {
			return fmt.Errorf("%w: move %d is %s, expected %s", ErrAlternationViolated, i, move.Player, expected)
		}
	}

	if game.Phase == PhaseInProgress {
		expected := PlayerX
		if len(game.History)%2 == 1 {
			expected = PlayerO
		}

		if game.ToMove != expected {
			return fmt.Errorf("%w: to_move %q after %d moves", ErrAlternationViolated, game.ToMove, len(game.History))
		}
	}

	return nil
}

// CheckHistoryMatchesBoard - I3: the history length equals the number of
// occupied squares.
func CheckHistoryMatchesBoard(game *Game) error {
	occupied := game.Board.OccupiedCount()
	if len(game.History) != occupied {
		return fmt.Errorf("%w: %d moves, %d occupied", ErrHistoryBoardMismatch, len(game.History), occupied)
	}

	return nil
}

// CheckInvariants - runs all three checkers.
func CheckInvariants(game *Game) error {
	if err := CheckReplayConsistent(game); err != nil {
		return err
	}

	if err := CheckStrictAlternation(game); err != nil {
		return err
	}

	return CheckHistoryMatchesBoard(game)
}
