package session

import (
	"github.com/rocketscienceinc/tilegame-backend/internal/entity"
	"github.com/rocketscienceinc/tilegame-backend/internal/tilegame"
)

// Phase is the tagged local view of the shared record.
type Phase int

const (
	// PhaseIdle - no game, or the record was removed from the store.
	PhaseIdle Phase = iota
	// PhaseWaitingOpponent - we created a game and hold the waiting room.
	PhaseWaitingOpponent
	// PhaseActive - both players seated, rounds in progress.
	PhaseActive
	// PhaseEnded - a side reached the win score.
	PhaseEnded
)

// LocalState is an immutable snapshot derived from the latest game
// record. Each store notification produces a fresh value; nothing here
// is mutated across callbacks.
type LocalState struct {
	Phase Phase
	Role  entity.Role

	Round    int
	IsMyTurn bool

	MyScore       int
	OpponentScore int
	DrawScore     int

	// RemainingTiles - my playable numbers, ascending.
	RemainingTiles []int
	// OpponentTiles - the opponent's remaining tiles in this session's
	// private shuffled display order.
	OpponentTiles []int

	// SelectedNumber - my move for the current round, once confirmed by
	// the store; nil while I still have to play.
	SelectedNumber *int

	// Won - valid only in PhaseEnded.
	Won bool
}

// Reduce - derives the local state for a role from a game snapshot.
// Pure; a nil snapshot (removed record) resets to idle.
func Reduce(role entity.Role, tileOrder []int, game *entity.Game) LocalState {
	if game == nil {
		return LocalState{Phase: PhaseIdle, Role: role}
	}

	if !game.BothJoined() {
		return LocalState{Phase: PhaseWaitingOpponent, Role: role, Round: game.CurrentRound}
	}

	mine := game.PlayerByRole(role)
	theirs := game.PlayerByRole(entity.Opponent(role))

	state := LocalState{
		Phase:          PhaseActive,
		Role:           role,
		Round:          game.CurrentRound,
		MyScore:        mine.Score,
		OpponentScore:  theirs.Score,
		DrawScore:      game.DrawScore,
		RemainingTiles: remainingAscending(mine.UsedNumbers),
		OpponentTiles:  tilegame.RemainingTiles(tileOrder, theirs.UsedNumbers),
	}

	if game.HasMovedThisRound(role) {
		number := mine.UsedNumbers[len(mine.UsedNumbers)-1]
		state.SelectedNumber = &number
	}

	state.IsMyTurn = game.CurrentTurn == role && state.SelectedNumber == nil

	if game.IsEnded() {
		state.Phase = PhaseEnded
		state.IsMyTurn = false
		state.Won = game.Winner == role
	}

	return state
}

func remainingAscending(used []int) []int {
	usedSet := make(map[int]struct{}, len(used))
	for _, number := range used {
		usedSet[number] = struct{}{}
	}

	remaining := make([]int, 0, entity.MaxTile-entity.MinTile+1)
	for number := entity.MinTile; number <= entity.MaxTile; number++ {
		if _, ok := usedSet[number]; ok {
			continue
		}
		remaining = append(remaining, number)
	}

	return remaining
}
