package pkg

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// GenerateGameID - generates a new unique game id.
func GenerateGameID() string {
	return "game_" + uuid.NewString()
}

// GeneratePlayerID - generates a new stable random client id.
func GeneratePlayerID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "error-generating-player-id"
	}

	return "player_" + base64.RawURLEncoding.EncodeToString(b)
}
