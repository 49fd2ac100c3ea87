package entity

import (
	"fmt"

	"github.com/crumplecup/strictly-games-sub000/internal/apperror"
	"github.com/crumplecup/strictly-games-sub000/internal/tictactoe"
)

// Session is one game instance plus up to two registered participant
// slots. X fills first, then O.
type Session struct {
	ID    string          `json:"id"`
	Game  *tictactoe.Game `json:"game"`
	SlotX *Participant    `json:"slot_x,omitempty"`
	SlotO *Participant    `json:"slot_o,omitempty"`
}

// NewSession - creates a session whose game is started and ready for
// moves as soon as both slots fill. X always moves first.
func NewSession(id string) *Session {
	game := tictactoe.NewGame()
	// Start never fails on a fresh setup game.
	_ = game.Start(tictactoe.PlayerX)

	return &Session{
		ID:   id,
		Game: game,
	}
}

// RegisterParticipant - assigns the first free slot, X before O. A third
// registration fails with ErrSlotsFull.
func (that *Session) RegisterParticipant(id, name, kind string) (tictactoe.Player, error) {
	switch {
	case that.SlotX == nil:
		that.SlotX = &Participant{ID: id, Name: name, Kind: kind, Mark: tictactoe.PlayerX}
		return tictactoe.PlayerX, nil
	case that.SlotO == nil:
		that.SlotO = &Participant{ID: id, Name: name, Kind: kind, Mark: tictactoe.PlayerO}
		return tictactoe.PlayerO, nil
	default:
		return "", fmt.Errorf("%w: session %s", apperror.ErrSlotsFull, that.ID)
	}
}

// ParticipantByID - resolves a participant by external identifier.
func (that *Session) ParticipantByID(id string) (*Participant, bool) {
	if that.SlotX != nil && that.SlotX.ID == id {
		return that.SlotX, true
	}

	if that.SlotO != nil && that.SlotO.ID == id {
		return that.SlotO, true
	}

	return nil, false
}

// ParticipantByMark - resolves the participant occupying the given mark.
func (that *Session) ParticipantByMark(mark tictactoe.Player) (*Participant, bool) {
	if that.SlotX != nil && that.SlotX.Mark == mark {
		return that.SlotX, true
	}

	if that.SlotO != nil && that.SlotO.Mark == mark {
		return that.SlotO, true
	}

	return nil, false
}

// IsParticipantsTurn - true iff the participant occupying the to-move mark
// matches the given identifier.
func (that *Session) IsParticipantsTurn(id string) bool {
	participant, ok := that.ParticipantByID(id)
	if !ok {
		return false
	}

	return that.Game.IsInProgress() && that.Game.ToMove == participant.Mark
}

// IsReady - reports whether both slots are filled.
func (that *Session) IsReady() bool {
	return that.SlotX != nil && that.SlotO != nil
}

// ParticipantCount - the number of filled slots.
func (that *Session) ParticipantCount() int {
	count := 0
	if that.SlotX != nil {
		count++
	}
	if that.SlotO != nil {
		count++
	}

	return count
}

// MakeMove - resolves the participant, confirms turn ownership, and
// delegates to the game state machine, propagating its error verbatim.
func (that *Session) MakeMove(participantID string, position tictactoe.Position) error {
	participant, ok := that.ParticipantByID(participantID)
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrUnknownParticipant, participantID)
	}

	if that.Game.IsInProgress() && that.Game.ToMove != participant.Mark {
		return fmt.Errorf("%w: waiting for %s", apperror.ErrNotYourTurn, that.Game.ToMove)
	}

	return that.Game.ApplyMove(tictactoe.NewMove(participant.Mark, position))
}

// Reset - discards the game and both slots, returning the session to a
// fresh state.
func (that *Session) Reset() {
	game := tictactoe.NewGame()
	_ = game.Start(tictactoe.PlayerX)

	that.Game = game
	that.SlotX = nil
	that.SlotO = nil
}

// Clone - returns an independent deep copy of the session.
func (that *Session) Clone() *Session {
	clone := &Session{
		ID:   that.ID,
		Game: that.Game.Clone(),
	}

	if that.SlotX != nil {
		slot := *that.SlotX
		clone.SlotX = &slot
	}

	if that.SlotO != nil {
		slot := *that.SlotO
		clone.SlotO = &slot
	}

	return clone
}
