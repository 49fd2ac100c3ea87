package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crumplecup/strictly-games-sub000/internal/apperror"
	"github.com/crumplecup/strictly-games-sub000/internal/tictactoe"
)

func readySession(t *testing.T) *Session {
	t.Helper()

	session := NewSession("room-1")

	_, err := session.RegisterParticipant("room-1_alice", "Alice", KindHuman)
	require.NoError(t, err)

	_, err = session.RegisterParticipant("room-1_bob", "Bob", KindAgent)
	require.NoError(t, err)

	return session
}

func TestSession_Registration(t *testing.T) {
	t.Run("The first participant takes X, the second takes O", func(t *testing.T) {
		session := NewSession("room-1")

		first, err := session.RegisterParticipant("room-1_alice", "Alice", KindHuman)
		require.NoError(t, err)
		assert.Equal(t, tictactoe.Player(tictactoe.PlayerX), first)

		second, err := session.RegisterParticipant("room-1_bob", "Bob", KindAgent)
		require.NoError(t, err)
		assert.Equal(t, tictactoe.Player(tictactoe.PlayerO), second)

		assert.True(t, session.IsReady())
		assert.Equal(t, 2, session.ParticipantCount())
	})

	t.Run("A third registration fails with SlotsFull", func(t *testing.T) {
		session := readySession(t)

		_, err := session.RegisterParticipant("room-1_carol", "Carol", KindHuman)

		assert.ErrorIs(t, err, apperror.ErrSlotsFull)
	})

	t.Run("A session with one participant is not ready", func(t *testing.T) {
		session := NewSession("room-1")

		_, err := session.RegisterParticipant("room-1_alice", "Alice", KindHuman)
		require.NoError(t, err)

		assert.False(t, session.IsReady())
		assert.Equal(t, 1, session.ParticipantCount())
	})
}

func TestSession_Lookup(t *testing.T) {
	session := readySession(t)

	t.Run("ParticipantByID resolves registered participants", func(t *testing.T) {
		participant, ok := session.ParticipantByID("room-1_bob")

		require.True(t, ok)
		assert.Equal(t, "Bob", participant.Name)
		assert.Equal(t, tictactoe.Player(tictactoe.PlayerO), participant.Mark)
		assert.True(t, participant.IsAgent())
	})

	t.Run("ParticipantByID misses unknown identifiers", func(t *testing.T) {
		_, ok := session.ParticipantByID("room-1_mallory")

		assert.False(t, ok)
	})

	t.Run("ParticipantByMark resolves both slots", func(t *testing.T) {
		x, ok := session.ParticipantByMark(tictactoe.PlayerX)
		require.True(t, ok)
		assert.Equal(t, "Alice", x.Name)

		o, ok := session.ParticipantByMark(tictactoe.PlayerO)
		require.True(t, ok)
		assert.Equal(t, "Bob", o.Name)
	})
}

func TestSession_Turns(t *testing.T) {
	t.Run("X holds the first turn", func(t *testing.T) {
		session := readySession(t)

		assert.True(t, session.IsParticipantsTurn("room-1_alice"))
		assert.False(t, session.IsParticipantsTurn("room-1_bob"))
	})

	t.Run("The turn flips after a move", func(t *testing.T) {
		session := readySession(t)

		require.NoError(t, session.MakeMove("room-1_alice", tictactoe.Center))

		assert.False(t, session.IsParticipantsTurn("room-1_alice"))
		assert.True(t, session.IsParticipantsTurn("room-1_bob"))
	})

	t.Run("An unknown participant never holds the turn", func(t *testing.T) {
		session := readySession(t)

		assert.False(t, session.IsParticipantsTurn("room-1_mallory"))
	})
}

func TestSession_MakeMove(t *testing.T) {
	t.Run("An unregistered participant cannot move", func(t *testing.T) {
		session := readySession(t)

		err := session.MakeMove("room-1_mallory", tictactoe.Center)

		assert.ErrorIs(t, err, apperror.ErrUnknownParticipant)
	})

	t.Run("Moving out of turn fails with NotYourTurn", func(t *testing.T) {
		session := readySession(t)

		err := session.MakeMove("room-1_bob", tictactoe.Center)

		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Game rejections pass through unchanged", func(t *testing.T) {
		session := readySession(t)
		require.NoError(t, session.MakeMove("room-1_alice", tictactoe.Center))

		err := session.MakeMove("room-1_bob", tictactoe.Center)

		assert.ErrorIs(t, err, apperror.ErrSquareOccupied)
	})

	t.Run("A full exchange plays through to a win", func(t *testing.T) {
		session := readySession(t)

		require.NoError(t, session.MakeMove("room-1_alice", tictactoe.TopLeft))
		require.NoError(t, session.MakeMove("room-1_bob", tictactoe.Center))
		require.NoError(t, session.MakeMove("room-1_alice", tictactoe.TopCenter))
		require.NoError(t, session.MakeMove("room-1_bob", tictactoe.BottomLeft))
		require.NoError(t, session.MakeMove("room-1_alice", tictactoe.TopRight))

		require.True(t, session.Game.IsOver())
		require.NotNil(t, session.Game.Outcome)
		assert.Equal(t, tictactoe.Player(tictactoe.PlayerX), session.Game.Outcome.Winner)
	})
}

func TestSession_Reset(t *testing.T) {
	t.Run("Reset empties both slots and restarts the game", func(t *testing.T) {
		session := readySession(t)
		require.NoError(t, session.MakeMove("room-1_alice", tictactoe.Center))

		session.Reset()

		assert.Equal(t, 0, session.ParticipantCount())
		assert.Empty(t, session.Game.History)
		assert.True(t, session.Game.IsInProgress())
		assert.Equal(t, tictactoe.Player(tictactoe.PlayerX), session.Game.ToMove)
	})
}

func TestSession_Clone(t *testing.T) {
	t.Run("Clones do not share game state or slots", func(t *testing.T) {
		session := readySession(t)
		clone := session.Clone()

		require.NoError(t, clone.MakeMove("room-1_alice", tictactoe.Center))
		clone.SlotO.Name = "Eve"

		assert.Empty(t, session.Game.History)
		assert.Equal(t, "Bob", session.SlotO.Name)
		assert.Len(t, clone.Game.History, 1)
	})
}
