package tilegame

import (
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tilegame-backend/internal/apperror"
	"github.com/rocketscienceinc/tilegame-backend/internal/entity"
)

var (
	ErrRoundNotComplete = errors.New("round is not complete")
	ErrPlayerMissing    = errors.New("player is missing from the game record")
)

// Outcome describes a resolved round.
type Outcome struct {
	Winner        entity.Role // empty on a draw
	Draw          bool
	Player1Number int
	Player2Number int
	Ended         bool
}

// Start - moves a fully populated game from waiting to ongoing.
func Start(gameInstance *entity.Game) error {
	if !gameInstance.BothJoined() {
		return apperror.ErrNoOpponent
	}

	if gameInstance.IsWaiting() {
		gameInstance.Status = entity.StatusOngoing
	}

	return nil
}

// SubmitMove - plays a tile for a role. The move appends to the role's
// history, flips the turn and records the pending half of the round.
func SubmitMove(gameInstance *entity.Game, role entity.Role, number int, now time.Time) error {
	if gameInstance.IsEnded() {
		return apperror.ErrGameEnded
	}

	if !gameInstance.IsOngoing() {
		return apperror.ErrGameIsNotStarted
	}

	if err := validateMove(gameInstance, role, number); err != nil {
		return fmt.Errorf("invalid move: %w", err)
	}

	player := gameInstance.PlayerByRole(role)
	player.UsedNumbers = append(player.UsedNumbers, number)

	gameInstance.LastMove = &entity.Move{
		Player:    player.ID,
		Number:    number,
		Timestamp: now.UnixMilli(),
	}

	gameInstance.CurrentTurn = entity.Opponent(role)
	gameInstance.Phase = entity.PhaseAwaitingSecond

	return nil
}

// validateMove - checks if the move is valid.
func validateMove(gameInstance *entity.Game, role entity.Role, number int) error {
	if number < entity.MinTile || number > entity.MaxTile {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidNumber, number)
	}

	if gameInstance.CurrentTurn != role {
		return apperror.ErrNotYourTurn
	}

	if gameInstance.PlayerByRole(role) == nil {
		return ErrPlayerMissing
	}

	if gameInstance.HasMovedThisRound(role) {
		return apperror.ErrAlreadyMoved
	}

	if gameInstance.HasUsed(role, number) {
		return apperror.ErrNumberUsed
	}

	return nil
}

// RoundComplete - both players have played the current round and it has
// not been resolved yet.
func RoundComplete(gameInstance *entity.Game) bool {
	if gameInstance.Phase != entity.PhaseAwaitingSecond {
		return false
	}

	return gameInstance.HasMovedThisRound(entity.RolePlayer1) &&
		gameInstance.HasMovedThisRound(entity.RolePlayer2)
}

// ResolveRound - compares the last played tiles and advances the record
// to the next round. Legal only on the awaiting_second edge, so a stale
// snapshot of an already resolved round is rejected instead of firing a
// duplicate resolution.
func ResolveRound(gameInstance *entity.Game) (*Outcome, error) {
	if gameInstance.IsEnded() {
		return nil, apperror.ErrGameEnded
	}

	if !RoundComplete(gameInstance) {
		return nil, fmt.Errorf("%w: round %d, phase %s", ErrRoundNotComplete, gameInstance.CurrentRound, gameInstance.Phase)
	}

	player1Number, ok := gameInstance.LastNumber(entity.RolePlayer1)
	if !ok {
		return nil, ErrPlayerMissing
	}

	player2Number, ok := gameInstance.LastNumber(entity.RolePlayer2)
	if !ok {
		return nil, ErrPlayerMissing
	}

	outcome := &Outcome{
		Player1Number: player1Number,
		Player2Number: player2Number,
	}

	switch {
	case player1Number > player2Number:
		outcome.Winner = entity.RolePlayer1
		gameInstance.Player1.Score++
	case player2Number > player1Number:
		outcome.Winner = entity.RolePlayer2
		gameInstance.Player2.Score++
	default:
		outcome.Draw = true
		gameInstance.DrawScore++
	}

	gameInstance.CurrentRound++
	gameInstance.LastMove = nil
	gameInstance.Phase = entity.PhaseAwaitingFirst

	// Both players have moved, so the turn is back on the role that
	// opened the round. The winner opens the next round; on a draw the
	// other role does, alternating the opener.
	if outcome.Draw {
		gameInstance.CurrentTurn = entity.Opponent(gameInstance.CurrentTurn)
	} else {
		gameInstance.CurrentTurn = outcome.Winner
	}

	updateGameStatus(gameInstance, outcome)

	return outcome, nil
}

// updateGameStatus - checks the win condition after a resolution.
func updateGameStatus(gameInstance *entity.Game, outcome *Outcome) {
	if gameInstance.Player1.Score < entity.WinScore && gameInstance.Player2.Score < entity.WinScore {
		return
	}

	gameInstance.Status = entity.StatusEnded
	gameInstance.Winner = outcome.Winner
	gameInstance.CurrentTurn = ""
	outcome.Ended = true
}

// Restart - overwrites the record with a fresh round 1, preserving the
// seated player ids. Last write wins when both clients restart at once.
func Restart(gameInstance *entity.Game) {
	if gameInstance.Player1 != nil {
		gameInstance.Player1 = entity.NewPlayerState(gameInstance.Player1.ID)
	}

	if gameInstance.Player2 != nil {
		gameInstance.Player2 = entity.NewPlayerState(gameInstance.Player2.ID)
	}

	gameInstance.CurrentRound = 1
	gameInstance.CurrentTurn = entity.RolePlayer1
	gameInstance.Phase = entity.PhaseAwaitingFirst
	gameInstance.DrawScore = 0
	gameInstance.LastMove = nil
	gameInstance.Winner = ""

	gameInstance.Status = entity.StatusWaiting
	if gameInstance.BothJoined() {
		gameInstance.Status = entity.StatusOngoing
	}
}
