package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tilegame-backend/internal/entity"
)

var ErrRoomNotFound = errors.New("waiting room is empty")

const (
	waitingRoomKey     = "waiting_room"
	waitingRoomChannel = "waiting_room:updates"
)

type WaitingRoomRepository interface {
	Get(ctx context.Context) (*entity.WaitingRoom, error)
	Put(ctx context.Context, room *entity.WaitingRoom) error
	Remove(ctx context.Context) error

	Claim(ctx context.Context) (*entity.WaitingRoom, error)
	Subscribe(ctx context.Context) (<-chan *entity.WaitingRoom, func(), error)
}

type dbWaitingRoom struct {
	client *redis.Client
}

func NewWaitingRoomRepository(client *redis.Client) WaitingRoomRepository {
	return &dbWaitingRoom{
		client: client,
	}
}

func (that *dbWaitingRoom) Get(ctx context.Context) (*entity.WaitingRoom, error) {
	response, err := that.client.Get(ctx, waitingRoomKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get waiting room: %w", err)
	}

	var room entity.WaitingRoom
	if err = json.Unmarshal([]byte(response), &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal waiting room: %w", err)
	}

	return &room, nil
}

func (that *dbWaitingRoom) Put(ctx context.Context, room *entity.WaitingRoom) error {
	roomJSON, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("could not marshal waiting room: %w", err)
	}

	if err = that.client.Set(ctx, waitingRoomKey, roomJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set waiting room: %w", err)
	}

	if err = that.client.Publish(ctx, waitingRoomChannel, roomJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish waiting room update: %w", err)
	}

	return nil
}

func (that *dbWaitingRoom) Remove(ctx context.Context) error {
	if err := that.client.Del(ctx, waitingRoomKey).Err(); err != nil {
		return fmt.Errorf("failed to delete waiting room: %w", err)
	}

	if err := that.client.Publish(ctx, waitingRoomChannel, removedPayload).Err(); err != nil {
		return fmt.Errorf("failed to publish waiting room removal: %w", err)
	}

	return nil
}

// Claim - reads and removes the slot in one guarded step. When two
// clients race for the same slot only one wins; the loser gets
// ErrRoomNotFound and falls back to creating a game of its own.
func (that *dbWaitingRoom) Claim(ctx context.Context) (*entity.WaitingRoom, error) {
	var claimed *entity.WaitingRoom

	err := that.client.Watch(ctx, func(tx *redis.Tx) error {
		response, err := tx.Get(ctx, waitingRoomKey).Result()
		if errors.Is(err, redis.Nil) {
			return ErrRoomNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to get waiting room: %w", err)
		}

		var room entity.WaitingRoom
		if err = json.Unmarshal([]byte(response), &room); err != nil {
			return fmt.Errorf("failed to unmarshal waiting room: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, waitingRoomKey)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to remove waiting room: %w", err)
		}

		claimed = &room

		return nil
	}, waitingRoomKey)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, fmt.Errorf("%w: slot claimed concurrently", ErrRoomNotFound)
	}

	if err != nil {
		return nil, err
	}

	if err = that.client.Publish(ctx, waitingRoomChannel, removedPayload).Err(); err != nil {
		return nil, fmt.Errorf("failed to publish waiting room removal: %w", err)
	}

	return claimed, nil
}

// Subscribe - delivers the current slot immediately, then every change;
// nil means the slot was removed, which a waiting creator reads as
// "opponent joined".
func (that *dbWaitingRoom) Subscribe(ctx context.Context) (<-chan *entity.WaitingRoom, func(), error) {
	sub := that.client.Subscribe(ctx, waitingRoomChannel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe to waiting room updates: %w", err)
	}

	updates := make(chan *entity.WaitingRoom, 8)

	go func() {
		defer close(updates)

		current, err := that.Get(ctx)

		switch {
		case errors.Is(err, ErrRoomNotFound):
			current = nil
		case err != nil:
			return
		}

		select {
		case updates <- current:
		case <-ctx.Done():
			return
		}

		for msg := range sub.Channel() {
			room, ok := decodeRoomPayload(msg.Payload)
			if !ok {
				continue
			}

			select {
			case updates <- room:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		_ = sub.Close()
	}

	return updates, cancel, nil
}

func decodeRoomPayload(payload string) (*entity.WaitingRoom, bool) {
	if payload == removedPayload {
		return nil, true
	}

	var room entity.WaitingRoom
	if err := json.Unmarshal([]byte(payload), &room); err != nil {
		return nil, false
	}

	return &room, true
}
