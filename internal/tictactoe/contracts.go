package tictactoe

import (
	"fmt"

	"github.com/crumplecup/strictly-games-sub000/internal/apperror"
)

// The two move preconditions are independently testable and composed by
// Game.Validate. Square emptiness is checked before turn ownership so that
// the first failing precondition is deterministic and error messages stay
// reproducible.

// SquareEmpty - fails with ErrSquareOccupied when the move targets an
// occupied square.
func SquareEmpty(move Move, game *Game) error {
	if !game.Board.IsEmpty(move.Position) {
		return fmt.Errorf("%w: %s", apperror.ErrSquareOccupied, move.Position)
	}

	return nil
}

// PlayerTurn - fails with ErrWrongPlayer when the move's player does not
// match the player to move.
func PlayerTurn(move Move, game *Game) error {
	if move.Player != game.ToMove {
		return fmt.Errorf("%w: expected %s", apperror.ErrWrongPlayer, game.ToMove)
	}

	return nil
}
