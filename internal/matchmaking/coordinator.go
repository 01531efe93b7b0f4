package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tilegame-backend/internal/entity"
	"github.com/rocketscienceinc/tilegame-backend/internal/pkg"
	"github.com/rocketscienceinc/tilegame-backend/internal/repository"
	"github.com/rocketscienceinc/tilegame-backend/internal/tilegame"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
	UpdateIfRound(ctx context.Context, id string, expectedRound int, mutate func(*entity.Game) error) (*entity.Game, error)
}

type roomRepo interface {
	Get(ctx context.Context) (*entity.WaitingRoom, error)
	Put(ctx context.Context, room *entity.WaitingRoom) error
	Remove(ctx context.Context) error
	Claim(ctx context.Context) (*entity.WaitingRoom, error)
}

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

// Coordinator pairs two clients into a shared game record through the
// single waiting-room slot.
type Coordinator struct {
	logger     *slog.Logger
	gameRepo   gameRepo
	roomRepo   roomRepo
	playerRepo playerRepo
}

func New(logger *slog.Logger, gameRepo gameRepo, roomRepo roomRepo, playerRepo playerRepo) *Coordinator {
	return &Coordinator{
		logger:     logger,
		gameRepo:   gameRepo,
		roomRepo:   roomRepo,
		playerRepo: playerRepo,
	}
}

// JoinOrCreate - claims the waiting-room slot and joins its game as
// player2, or creates a fresh game and parks it in the slot as player1.
// Any previous game the caller still occupies is torn down first,
// best effort.
func (that *Coordinator) JoinOrCreate(ctx context.Context, playerID string) (*entity.Game, entity.Role, error) {
	that.cleanupPrevious(ctx, playerID)

	room, err := that.roomRepo.Claim(ctx)

	if err == nil {
		game, joinErr := that.joinAsPlayer2(ctx, room, playerID)
		if joinErr == nil {
			return game, entity.RolePlayer2, nil
		}

		// The slot pointed at a game that no longer exists; start over
		// as a creator instead.
		if !errors.Is(joinErr, repository.ErrGameNotFound) {
			return nil, "", joinErr
		}

		that.logger.Warn("waiting room pointed at a missing game", "gameID", room.GameID)
	}

	if err != nil && !errors.Is(err, repository.ErrRoomNotFound) {
		return nil, "", fmt.Errorf("failed to claim waiting room: %w", err)
	}

	game, err := that.createAsPlayer1(ctx, playerID)
	if err != nil {
		return nil, "", err
	}

	return game, entity.RolePlayer1, nil
}

func (that *Coordinator) joinAsPlayer2(ctx context.Context, room *entity.WaitingRoom, playerID string) (*entity.Game, error) {
	game, err := that.gameRepo.UpdateIfRound(ctx, room.GameID, 1, func(game *entity.Game) error {
		game.Player2 = entity.NewPlayerState(playerID)

		return tilegame.Start(game)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join game %s: %w", room.GameID, err)
	}

	if err = that.savePlayer(ctx, playerID, game.ID, entity.RolePlayer2); err != nil {
		return nil, err
	}

	that.logger.Info("joined existing game", "gameID", game.ID, "playerID", playerID)

	return game, nil
}

func (that *Coordinator) createAsPlayer1(ctx context.Context, playerID string) (*entity.Game, error) {
	gameID := pkg.GenerateGameID()

	room := &entity.WaitingRoom{
		GameID:  gameID,
		Player1: playerID,
	}

	if err := that.roomRepo.Put(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to register waiting room: %w", err)
	}

	game := entity.NewGame(gameID)
	game.Player1 = entity.NewPlayerState(playerID)

	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err := that.savePlayer(ctx, playerID, gameID, entity.RolePlayer1); err != nil {
		return nil, err
	}

	that.logger.Info("created new game, waiting for opponent", "gameID", gameID, "playerID", playerID)

	return game, nil
}

func (that *Coordinator) savePlayer(ctx context.Context, playerID, gameID string, role entity.Role) error {
	player := &entity.Player{
		ID:     playerID,
		GameID: gameID,
		Role:   role,
	}

	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}

// cleanupPrevious - removes the caller's abandoned game and its waiting
// room slot, if any. Failures are logged and ignored; a stale record is
// orphaned, not fatal.
func (that *Coordinator) cleanupPrevious(ctx context.Context, playerID string) {
	log := that.logger.With("method", "cleanupPrevious")

	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil || player.GameID == "" {
		return
	}

	if err = that.gameRepo.DeleteByID(ctx, player.GameID); err != nil {
		log.Error("failed to delete previous game", "gameID", player.GameID, "error", err)
	}

	room, err := that.roomRepo.Get(ctx)
	if err == nil && room.GameID == player.GameID {
		if err = that.roomRepo.Remove(ctx); err != nil {
			log.Error("failed to remove stale waiting room", "gameID", player.GameID, "error", err)
		}
	}

	player.GameID = ""
	player.Role = ""
	if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		log.Error("failed to reset player record", "playerID", playerID, "error", err)
	}
}
