package pkg

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const sessionIDBytes = 16

// GenerateSessionToken - generates a random identifier for anonymous
// callers.
func GenerateSessionToken() string {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("failed to read random bytes: %w", err))
	}

	return hex.EncodeToString(buf)
}

// ParticipantID - derives the deterministic participant identifier used
// across registration and the arbitration loop.
func ParticipantID(sessionID, name string) string {
	slug := strings.ReplaceAll(strings.ToLower(name), " ", "_")
	return fmt.Sprintf("%s_%s", sessionID, slug)
}
