package apperror

import "errors"

// Validation errors are recoverable and caller-facing. Session errors cover
// registry and slot misuse. Coordination errors come out of the arbitration
// loop. Anything else that escapes the arbiter is a programming-error signal.
var (
	ErrSquareOccupied = errors.New("square is already occupied")
	ErrWrongPlayer    = errors.New("it's not this player's turn")
	ErrGameOver       = errors.New("game is already finished")
	ErrGameNotStarted = errors.New("game is not started")

	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrSlotsFull            = errors.New("session already has 2 players")
	ErrUnknownParticipant   = errors.New("unknown participant")
	ErrNotYourTurn          = errors.New("it's not your turn")

	ErrOpponentWaitTimedOut  = errors.New("timed out waiting for opponent to move")
	ErrNoLegalMovesAvailable = errors.New("no legal moves available")
)
