package tictactoe

import "fmt"

// Move is a first-class value: the pair of a player and a target position.
// It can be constructed, compared, and replayed independently of any game
// instance.
type Move struct {
	Player   Player   `json:"player"`
	Position Position `json:"position"`
}

// NewMove - constructs a move for the given player and position.
func NewMove(player Player, position Position) Move {
	return Move{Player: player, Position: position}
}

func (that Move) String() string {
	return fmt.Sprintf("%s:%s", that.Player, that.Position)
}

// ValidatedMove is the proof token accepted by Game.Apply. It can only be
// produced by Game.Validate, so an unvalidated move is a compile error at
// the mutation entry point rather than a runtime surprise.
type ValidatedMove struct {
	move Move
}

// Move - returns the underlying move.
func (that ValidatedMove) Move() Move {
	return that.move
}
