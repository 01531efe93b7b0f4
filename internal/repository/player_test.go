package repository

import (
	"context"
	"testing"

	"github.com/rocketscienceinc/tilegame-backend/internal/entity"
	"github.com/stretchr/testify/require"
)

func TestPlayerRepository_CreateOrUpdate(t *testing.T) {
	ctx := context.Background()
	playerRepo := NewPlayerRepository(newTestClient(t))

	// Given: a player bound to a game
	player := &entity.Player{
		ID:     "player_1",
		GameID: "game_1",
		Role:   entity.RolePlayer1,
	}

	// When: the record is saved
	err := playerRepo.CreateOrUpdate(ctx, player)

	// Then: it reads back unchanged
	require.NoError(t, err)

	stored, err := playerRepo.GetByID(ctx, "player_1")
	require.NoError(t, err)
	require.Equal(t, player, stored)
}

func TestPlayerRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	playerRepo := NewPlayerRepository(newTestClient(t))

	// When: GetByID is called with a non-existent id
	stored, err := playerRepo.GetByID(ctx, "player_9999")

	// Then: an ErrPlayerNotFound error should be returned
	require.ErrorIs(t, err, ErrPlayerNotFound)
	require.Empty(t, stored.ID)
}
