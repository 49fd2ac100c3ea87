package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	t.Run("A generated token parses back to its claims", func(t *testing.T) {
		auth := NewAuthService("secret")

		token, err := auth.GenerateToken("room-1_alice", "room-1")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		participantID, sessionID, err := auth.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, "room-1_alice", participantID)
		assert.Equal(t, "room-1", sessionID)
	})

	t.Run("A token signed with another key is rejected", func(t *testing.T) {
		issuer := NewAuthService("secret")
		verifier := NewAuthService("other-secret")

		token, err := issuer.GenerateToken("room-1_alice", "room-1")
		require.NoError(t, err)

		_, _, err = verifier.ParseToken(token)

		assert.Error(t, err)
	})

	t.Run("Garbage input is rejected", func(t *testing.T) {
		auth := NewAuthService("secret")

		_, _, err := auth.ParseToken("not-a-token")

		assert.Error(t, err)
	})
}
