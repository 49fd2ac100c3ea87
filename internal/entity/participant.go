package entity

import "github.com/crumplecup/strictly-games-sub000/internal/tictactoe"

const (
	KindHuman = "human"
	KindAgent = "agent"
)

// Participant is one registered occupant of a session slot: an external
// identifier, a display name, and a kind tag.
type Participant struct {
	ID   string           `json:"id"`
	Name string           `json:"name"`
	Kind string           `json:"kind"`
	Mark tictactoe.Player `json:"mark"`
}

// IsAgent - reports whether the participant is an automated one.
func (that *Participant) IsAgent() bool {
	return that.Kind == KindAgent
}
