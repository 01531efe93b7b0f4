package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tilegame-backend/internal/apperror"
	"github.com/rocketscienceinc/tilegame-backend/internal/entity"
	"github.com/rocketscienceinc/tilegame-backend/internal/pkg"
	"github.com/rocketscienceinc/tilegame-backend/internal/tilegame"
)

var ErrNoActiveGame = errors.New("no active game")

type matchmaker interface {
	JoinOrCreate(ctx context.Context, playerID string) (*entity.Game, entity.Role, error)
}

type gameRepo interface {
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	UpdateIfRound(ctx context.Context, id string, expectedRound int, mutate func(*entity.Game) error) (*entity.Game, error)
	Subscribe(ctx context.Context, id string) (<-chan *entity.Game, func(), error)
}

type roomRepo interface {
	Subscribe(ctx context.Context) (<-chan *entity.WaitingRoom, func(), error)
}

// Listener receives every derived state snapshot; the view renders it.
type Listener interface {
	OnState(state LocalState)
}

// Session is one client's replica of the shared game. It subscribes to
// the record, reduces every snapshot to a LocalState and issues the
// conditional writes for its own moves. There is no server-side
// arbitration; the opposing session runs the same code against the same
// record.
type Session struct {
	logger     *slog.Logger
	matchmaker matchmaker
	gameRepo   gameRepo
	roomRepo   roomRepo
	listener   Listener

	playerID string

	mu        sync.Mutex
	role      entity.Role
	gameID    string
	tileOrder []int
	state     LocalState

	cancelWatch context.CancelFunc
}

func New(logger *slog.Logger, matchmaker matchmaker, gameRepo gameRepo, roomRepo roomRepo, playerID string, listener Listener) *Session {
	if playerID == "" {
		playerID = pkg.GeneratePlayerID()
	}

	return &Session{
		logger:     logger,
		matchmaker: matchmaker,
		gameRepo:   gameRepo,
		roomRepo:   roomRepo,
		listener:   listener,
		playerID:   playerID,
		state:      LocalState{Phase: PhaseIdle},
	}
}

// State - the latest derived snapshot.
func (that *Session) State() LocalState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state
}

// RequestMatch - joins or creates a game and starts watching it. On a
// store failure the session stays idle and the error surfaces to the
// view; there is no retry.
func (that *Session) RequestMatch(ctx context.Context) error {
	log := that.logger.With("method", "RequestMatch")

	game, role, err := that.matchmaker.JoinOrCreate(ctx, that.playerID)
	if err != nil {
		that.publish(LocalState{Phase: PhaseIdle})

		return fmt.Errorf("failed to find match: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)

	that.mu.Lock()
	if that.cancelWatch != nil {
		that.cancelWatch()
	}
	that.cancelWatch = cancel
	that.role = role
	that.gameID = game.ID
	that.tileOrder = tilegame.ShuffledTileOrder()
	that.mu.Unlock()

	updates, cancelSub, err := that.gameRepo.Subscribe(watchCtx, game.ID)
	if err != nil {
		cancel()
		that.publish(LocalState{Phase: PhaseIdle})

		return fmt.Errorf("failed to subscribe to game: %w", err)
	}

	go that.watchGame(watchCtx, updates, cancelSub)

	if role == entity.RolePlayer1 {
		if err = that.watchRoom(watchCtx); err != nil {
			log.Warn("failed to watch waiting room", "error", err)
		}
	}

	log.Info("matched", "gameID", game.ID, "role", role)

	that.apply(game)

	return nil
}

// SubmitMove - plays a tile. Illegal moves are rejected locally with no
// store write. The write is conditional on the round we derived the move
// from; when our move completes the round we resolve it in the same
// write, which elects this session as the round's single resolver.
func (that *Session) SubmitMove(ctx context.Context, number int) error {
	that.mu.Lock()
	state := that.state
	role := that.role
	gameID := that.gameID
	that.mu.Unlock()

	if err := validateLocal(state, number); err != nil {
		return err
	}

	game, err := that.gameRepo.UpdateIfRound(ctx, gameID, state.Round, func(game *entity.Game) error {
		if err := tilegame.SubmitMove(game, role, number, time.Now()); err != nil {
			return err
		}

		if !tilegame.RoundComplete(game) {
			return nil
		}

		outcome, err := tilegame.ResolveRound(game)
		if err != nil {
			return err
		}

		that.logger.Info("round resolved",
			"gameID", game.ID,
			"round", game.CurrentRound-1,
			"winner", outcome.Winner,
			"draw", outcome.Draw,
		)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to submit move: %w", err)
	}

	that.apply(game)

	return nil
}

// validateLocal - the local-only rejection set: wrong phase, wrong turn,
// already selected, number reused.
func validateLocal(state LocalState, number int) error {
	switch state.Phase {
	case PhaseEnded:
		return apperror.ErrGameEnded
	case PhaseIdle, PhaseWaitingOpponent:
		return apperror.ErrGameIsNotStarted
	case PhaseActive:
	}

	if state.SelectedNumber != nil {
		return apperror.ErrAlreadyMoved
	}

	if !state.IsMyTurn {
		return apperror.ErrNotYourTurn
	}

	if number < entity.MinTile || number > entity.MaxTile {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidNumber, number)
	}

	for _, remaining := range state.RemainingTiles {
		if remaining == number {
			return nil
		}
	}

	return apperror.ErrNumberUsed
}

// Restart - overwrites the record with a fresh game, keeping both seats.
// Not guarded; simultaneous restarts are last write wins, as both sides
// write the same reset.
func (that *Session) Restart(ctx context.Context) error {
	that.mu.Lock()
	gameID := that.gameID
	that.mu.Unlock()

	if gameID == "" {
		return ErrNoActiveGame
	}

	game, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	tilegame.Restart(game)

	if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to restart game: %w", err)
	}

	that.mu.Lock()
	that.tileOrder = tilegame.ShuffledTileOrder()
	that.mu.Unlock()

	that.apply(game)

	return nil
}

// Leave - stops watching the current game.
func (that *Session) Leave() {
	that.mu.Lock()
	if that.cancelWatch != nil {
		that.cancelWatch()
		that.cancelWatch = nil
	}
	that.gameID = ""
	that.role = ""
	that.mu.Unlock()

	that.publish(LocalState{Phase: PhaseIdle})
}

// watchGame - re-evaluates the state machine on every store snapshot.
func (that *Session) watchGame(ctx context.Context, updates <-chan *entity.Game, cancelSub func()) {
	defer cancelSub()

	for {
		select {
		case game, ok := <-updates:
			if !ok {
				return
			}

			that.apply(game)
		case <-ctx.Done():
			return
		}
	}
}

// watchRoom - the creator treats the waiting room vanishing as the
// "opponent joined" signal and re-reads the game record right away.
func (that *Session) watchRoom(ctx context.Context) error {
	updates, cancelSub, err := that.roomRepo.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to waiting room: %w", err)
	}

	go func() {
		defer cancelSub()

		for {
			select {
			case room, ok := <-updates:
				if !ok {
					return
				}

				if room != nil {
					continue
				}

				that.mu.Lock()
				gameID := that.gameID
				that.mu.Unlock()

				if gameID == "" {
					return
				}

				game, err := that.gameRepo.GetByID(ctx, gameID)
				if err != nil {
					continue
				}

				that.apply(game)
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// apply - reduces a snapshot and notifies the listener.
func (that *Session) apply(game *entity.Game) {
	that.mu.Lock()
	next := Reduce(that.role, that.tileOrder, game)
	that.state = next
	that.mu.Unlock()

	if that.listener != nil {
		that.listener.OnState(next)
	}
}

func (that *Session) publish(state LocalState) {
	that.mu.Lock()
	that.state = state
	that.mu.Unlock()

	if that.listener != nil {
		that.listener.OnState(state)
	}
}
