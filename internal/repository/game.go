package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tilegame-backend/internal/entity"
)

var (
	ErrGameNotFound = errors.New("game not found")

	// ErrRoundConflict - a conditional update found the stored round
	// different from the expected one, or lost a concurrent write.
	ErrRoundConflict = errors.New("round conflict")
)

// removedPayload marks a deleted record on the update channel.
const removedPayload = "null"

type GameRepository interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error

	UpdateIfRound(ctx context.Context, id string, expectedRound int, mutate func(*entity.Game) error) (*entity.Game, error)
	Subscribe(ctx context.Context, id string) (<-chan *entity.Game, func(), error)
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func gameKey(id string) string {
	return "game:" + id
}

func gameChannel(id string) string {
	return "game:updates:" + id
}

// CreateOrUpdate - replaces the whole record and notifies subscribers.
// Plain last-write-wins; racing writers are not arbitrated here.
func (that *dbGame) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	if err = that.client.Set(ctx, gameKey(game.ID), gameJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	if err = that.client.Publish(ctx, gameChannel(game.ID), gameJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish game update: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return &entity.Game{}, ErrGameNotFound
	}

	if err != nil {
		return &entity.Game{}, fmt.Errorf("failed to get game by id: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return &entity.Game{}, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	if err := that.client.Del(ctx, gameKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete game by id: %w", err)
	}

	if err := that.client.Publish(ctx, gameChannel(id), removedPayload).Err(); err != nil {
		return fmt.Errorf("failed to publish game removal: %w", err)
	}

	return nil
}

// UpdateIfRound - conditional update: reloads the record under WATCH,
// rejects it when the stored round no longer matches expectedRound,
// applies mutate and writes the result atomically. A concurrent write to
// the same key fails the transaction and surfaces as ErrRoundConflict,
// which makes duplicate round resolutions a no-op instead of a
// double-applied score.
func (that *dbGame) UpdateIfRound(ctx context.Context, id string, expectedRound int, mutate func(*entity.Game) error) (*entity.Game, error) {
	var updatedGame *entity.Game
	var updatedJSON []byte

	err := that.client.Watch(ctx, func(tx *redis.Tx) error {
		response, err := tx.Get(ctx, gameKey(id)).Result()
		if errors.Is(err, redis.Nil) {
			return ErrGameNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to get game by id: %w", err)
		}

		var game entity.Game
		if err = json.Unmarshal([]byte(response), &game); err != nil {
			return fmt.Errorf("failed to unmarshal game: %w", err)
		}

		if game.CurrentRound != expectedRound {
			return fmt.Errorf("%w: expected round %d, stored %d", ErrRoundConflict, expectedRound, game.CurrentRound)
		}

		if err = mutate(&game); err != nil {
			return err
		}

		updatedJSON, err = json.Marshal(&game)
		if err != nil {
			return fmt.Errorf("could not marshal game: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gameKey(id), updatedJSON, 0)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to write game: %w", err)
		}

		updatedGame = &game

		return nil
	}, gameKey(id))

	if errors.Is(err, redis.TxFailedErr) {
		return nil, fmt.Errorf("%w: lost concurrent write on game %s", ErrRoundConflict, id)
	}

	if err != nil {
		return nil, err
	}

	if err = that.client.Publish(ctx, gameChannel(id), updatedJSON).Err(); err != nil {
		return nil, fmt.Errorf("failed to publish game update: %w", err)
	}

	return updatedGame, nil
}

// Subscribe - delivers the current record immediately, then every
// published change. A nil delivery means the record was removed. The
// returned cancel func stops the subscription and closes the channel.
func (that *dbGame) Subscribe(ctx context.Context, id string) (<-chan *entity.Game, func(), error) {
	sub := that.client.Subscribe(ctx, gameChannel(id))
	if _, err := sub.Receive(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe to game updates: %w", err)
	}

	updates := make(chan *entity.Game, 8)

	go func() {
		defer close(updates)

		current, err := that.GetByID(ctx, id)

		switch {
		case errors.Is(err, ErrGameNotFound):
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
			game, ok := decodeGamePayload(msg.Payload)
			if !ok {
				continue
			}

			select {
			case updates <- game:
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

func decodeGamePayload(payload string) (*entity.Game, bool) {
	if payload == removedPayload {
		return nil, true
	}

	var game entity.Game
	if err := json.Unmarshal([]byte(payload), &game); err != nil {
		return nil, false
	}

	return &game, true
}
