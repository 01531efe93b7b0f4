package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGame(t *testing.T) {
	// When: a new game record is created
	game := NewGame("123")

	// Then: it matches the expected initial state
	expectedGame := &Game{
		ID:           "123",
		CurrentRound: 1,
		CurrentTurn:  RolePlayer1,
		Phase:        PhaseAwaitingFirst,
		Status:       StatusWaiting,
	}

	require.Equal(t, expectedGame, game)
}

func TestGame_RoleOf(t *testing.T) {
	game := NewGame("123")
	game.Player1 = NewPlayerState("p1")
	game.Player2 = NewPlayerState("p2")

	role, ok := game.RoleOf("p1")
	require.True(t, ok)
	assert.Equal(t, RolePlayer1, role)

	role, ok = game.RoleOf("p2")
	require.True(t, ok)
	assert.Equal(t, RolePlayer2, role)

	_, ok = game.RoleOf("stranger")
	require.False(t, ok)
}

func TestGame_BothJoined(t *testing.T) {
	game := NewGame("123")
	require.False(t, game.BothJoined())

	game.Player1 = NewPlayerState("p1")
	require.False(t, game.BothJoined())

	game.Player2 = NewPlayerState("p2")
	require.True(t, game.BothJoined())
}

func TestGame_HasUsed(t *testing.T) {
	game := NewGame("123")
	game.Player1 = NewPlayerState("p1")
	game.Player1.UsedNumbers = []int{3, 7}

	assert.True(t, game.HasUsed(RolePlayer1, 3))
	assert.True(t, game.HasUsed(RolePlayer1, 7))
	assert.False(t, game.HasUsed(RolePlayer1, 5))
	assert.False(t, game.HasUsed(RolePlayer2, 3))
}

func TestGame_HasMovedThisRound(t *testing.T) {
	game := NewGame("123")
	game.Player1 = NewPlayerState("p1")
	game.Player2 = NewPlayerState("p2")

	// round 1, nobody has moved
	assert.False(t, game.HasMovedThisRound(RolePlayer1))

	game.Player1.UsedNumbers = []int{4}
	assert.True(t, game.HasMovedThisRound(RolePlayer1))
	assert.False(t, game.HasMovedThisRound(RolePlayer2))

	// resolved into round 2, histories equal again
	game.Player2.UsedNumbers = []int{2}
	game.CurrentRound = 2
	assert.False(t, game.HasMovedThisRound(RolePlayer1))
	assert.False(t, game.HasMovedThisRound(RolePlayer2))
}

func TestOpponent(t *testing.T) {
	assert.Equal(t, RolePlayer2, Opponent(RolePlayer1))
	assert.Equal(t, RolePlayer1, Opponent(RolePlayer2))
}

func TestGame_LastNumber(t *testing.T) {
	game := NewGame("123")
	game.Player1 = NewPlayerState("p1")

	_, ok := game.LastNumber(RolePlayer1)
	require.False(t, ok)

	game.Player1.UsedNumbers = []int{3, 8}

	number, ok := game.LastNumber(RolePlayer1)
	require.True(t, ok)
	assert.Equal(t, 8, number)
}
