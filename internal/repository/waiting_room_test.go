package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rocketscienceinc/tilegame-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveRoom(t *testing.T, updates <-chan *entity.WaitingRoom) *entity.WaitingRoom {
	t.Helper()

	select {
	case room, ok := <-updates:
		require.True(t, ok, "updates channel closed unexpectedly")
		return room
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for room update")
		return nil
	}
}

func TestWaitingRoomRepository_PutAndGet(t *testing.T) {
	ctx := context.Background()
	roomRepo := NewWaitingRoomRepository(newTestClient(t))

	// Given: an empty slot
	_, err := roomRepo.Get(ctx)
	require.ErrorIs(t, err, ErrRoomNotFound)

	// When: a creator parks its game in the slot
	room := &entity.WaitingRoom{GameID: "game_1", Player1: "p1"}
	require.NoError(t, roomRepo.Put(ctx, room))

	// Then: the slot holds the room
	stored, err := roomRepo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, room, stored)
}

func TestWaitingRoomRepository_Remove(t *testing.T) {
	ctx := context.Background()
	roomRepo := NewWaitingRoomRepository(newTestClient(t))

	require.NoError(t, roomRepo.Put(ctx, &entity.WaitingRoom{GameID: "game_1", Player1: "p1"}))

	// When: the slot is removed
	require.NoError(t, roomRepo.Remove(ctx))

	// Then: it reads as empty again
	_, err := roomRepo.Get(ctx)
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestWaitingRoomRepository_Claim(t *testing.T) {
	t.Run("Claim takes the slot", func(t *testing.T) {
		ctx := context.Background()
		roomRepo := NewWaitingRoomRepository(newTestClient(t))

		room := &entity.WaitingRoom{GameID: "game_1", Player1: "p1"}
		require.NoError(t, roomRepo.Put(ctx, room))

		// When: a joiner claims the slot
		claimed, err := roomRepo.Claim(ctx)

		// Then: it gets the room and the slot is emptied in the same step
		require.NoError(t, err)
		require.Equal(t, room, claimed)

		_, err = roomRepo.Get(ctx)
		require.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("Claim on an empty slot", func(t *testing.T) {
		ctx := context.Background()
		roomRepo := NewWaitingRoomRepository(newTestClient(t))

		// When: a joiner claims with nothing parked
		claimed, err := roomRepo.Claim(ctx)

		// Then: ErrRoomNotFound tells it to create instead
		require.ErrorIs(t, err, ErrRoomNotFound)
		assert.Nil(t, claimed)
	})

	t.Run("Second claim loses", func(t *testing.T) {
		ctx := context.Background()
		roomRepo := NewWaitingRoomRepository(newTestClient(t))

		require.NoError(t, roomRepo.Put(ctx, &entity.WaitingRoom{GameID: "game_1", Player1: "p1"}))

		_, err := roomRepo.Claim(ctx)
		require.NoError(t, err)

		// When: another joiner tries the already-emptied slot
		_, err = roomRepo.Claim(ctx)

		// Then: it loses the race
		require.ErrorIs(t, err, ErrRoomNotFound)
	})
}

func TestWaitingRoomRepository_Subscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	roomRepo := NewWaitingRoomRepository(newTestClient(t))

	updates, cancelSub, err := roomRepo.Subscribe(ctx)
	require.NoError(t, err)
	defer cancelSub()

	// Then: the empty slot is delivered as nil immediately
	require.Nil(t, receiveRoom(t, updates))

	// When: a creator parks a room
	room := &entity.WaitingRoom{GameID: "game_1", Player1: "p1"}
	require.NoError(t, roomRepo.Put(ctx, room))

	// Then: the room is delivered
	next := receiveRoom(t, updates)
	require.NotNil(t, next)
	require.Equal(t, "game_1", next.GameID)

	// When: a joiner claims the slot
	_, err = roomRepo.Claim(ctx)
	require.NoError(t, err)

	// Then: nil signals the removal to the waiting creator
	require.Nil(t, receiveRoom(t, updates))
}
