package tilegame

import (
	"testing"
	"time"

	"github.com/rocketscienceinc/tilegame-backend/internal/apperror"
	"github.com/rocketscienceinc/tilegame-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActiveGame() *entity.Game {
	game := entity.NewGame("123")
	game.Player1 = entity.NewPlayerState("p1")
	game.Player2 = entity.NewPlayerState("p2")
	game.Status = entity.StatusOngoing

	return game
}

func playRound(t *testing.T, game *entity.Game, firstNumber, secondNumber int) *Outcome {
	t.Helper()

	first := game.CurrentTurn
	second := entity.Opponent(first)

	require.NoError(t, SubmitMove(game, first, firstNumber, time.Now()))
	require.NoError(t, SubmitMove(game, second, secondNumber, time.Now()))

	outcome, err := ResolveRound(game)
	require.NoError(t, err)

	return outcome
}

func TestStart(t *testing.T) {
	t.Run("Start with both players", func(t *testing.T) {
		// Given: a waiting game with both seats filled
		game := entity.NewGame("123")
		game.Player1 = entity.NewPlayerState("p1")
		game.Player2 = entity.NewPlayerState("p2")

		// When: the game is started
		err := Start(game)

		// Then: it becomes ongoing
		require.NoError(t, err)
		require.Equal(t, entity.StatusOngoing, game.Status)
	})

	t.Run("Error without opponent", func(t *testing.T) {
		// Given: a waiting game with a single seat filled
		game := entity.NewGame("123")
		game.Player1 = entity.NewPlayerState("p1")

		// When: the game is started
		err := Start(game)

		// Then: ErrNoOpponent is returned and the game stays waiting
		require.ErrorIs(t, err, apperror.ErrNoOpponent)
		require.Equal(t, entity.StatusWaiting, game.Status)
	})
}

func TestSubmitMove(t *testing.T) {
	t.Run("First move of a round", func(t *testing.T) {
		// Given: a fresh ongoing game, player1 to move
		game := newActiveGame()

		// When: player1 plays 7
		err := SubmitMove(game, entity.RolePlayer1, 7, time.Now())

		// Then: the move is recorded, the turn flips and the round is half done
		require.NoError(t, err)
		require.Equal(t, []int{7}, game.Player1.UsedNumbers)
		require.Equal(t, entity.RolePlayer2, game.CurrentTurn)
		require.Equal(t, entity.PhaseAwaitingSecond, game.Phase)
		require.NotNil(t, game.LastMove)
		require.Equal(t, "p1", game.LastMove.Player)
		require.Equal(t, 7, game.LastMove.Number)
	})

	t.Run("Error on playing out of turn", func(t *testing.T) {
		// Given: a fresh ongoing game, player1 to move
		game := newActiveGame()

		// When: player2 tries to move first
		err := SubmitMove(game, entity.RolePlayer2, 3, time.Now())

		// Then: ErrNotYourTurn and no state change
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		require.Empty(t, game.Player2.UsedNumbers)
		require.Nil(t, game.LastMove)
	})

	t.Run("Error on reused number", func(t *testing.T) {
		// Given: player1 already played 7 in round 1
		game := newActiveGame()
		playRound(t, game, 7, 3)

		// When: player1 plays 7 again in round 2
		err := SubmitMove(game, entity.RolePlayer1, 7, time.Now())

		// Then: ErrNumberUsed and the history is unchanged
		require.ErrorIs(t, err, apperror.ErrNumberUsed)
		require.Equal(t, []int{7}, game.Player1.UsedNumbers)
	})

	t.Run("Error on number out of range", func(t *testing.T) {
		game := newActiveGame()

		err := SubmitMove(game, entity.RolePlayer1, 9, time.Now())
		require.ErrorIs(t, err, apperror.ErrInvalidNumber)

		err = SubmitMove(game, entity.RolePlayer1, -1, time.Now())
		require.ErrorIs(t, err, apperror.ErrInvalidNumber)
	})

	t.Run("Error on waiting game", func(t *testing.T) {
		// Given: a game with no opponent yet
		game := entity.NewGame("123")
		game.Player1 = entity.NewPlayerState("p1")

		// When: player1 tries to move anyway
		err := SubmitMove(game, entity.RolePlayer1, 4, time.Now())

		// Then: ErrGameIsNotStarted
		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})
}

func TestResolveRound(t *testing.T) {
	t.Run("Higher number wins the round", func(t *testing.T) {
		// Given: player1 submits 7, player2 submits 3
		game := newActiveGame()

		// When: the round resolves
		outcome := playRound(t, game, 7, 3)

		// Then: player1 scores, round 2 starts and player1 opens it
		require.Equal(t, entity.RolePlayer1, outcome.Winner)
		assert.False(t, outcome.Draw)
		assert.Equal(t, 1, game.Player1.Score)
		assert.Equal(t, 0, game.Player2.Score)
		assert.Equal(t, 0, game.DrawScore)
		assert.Equal(t, 2, game.CurrentRound)
		assert.Equal(t, entity.RolePlayer1, game.CurrentTurn)
		assert.Equal(t, entity.PhaseAwaitingFirst, game.Phase)
		assert.Nil(t, game.LastMove)
	})

	t.Run("Equal numbers draw and the opener alternates", func(t *testing.T) {
		// Given: both players submit 4 in a round opened by player1
		game := newActiveGame()

		// When: the round resolves
		outcome := playRound(t, game, 4, 4)

		// Then: only the draw counter moves and player2 opens round 2
		require.True(t, outcome.Draw)
		assert.Empty(t, outcome.Winner)
		assert.Equal(t, 0, game.Player1.Score)
		assert.Equal(t, 0, game.Player2.Score)
		assert.Equal(t, 1, game.DrawScore)
		assert.Equal(t, 2, game.CurrentRound)
		assert.Equal(t, entity.RolePlayer2, game.CurrentTurn)
	})

	t.Run("Exactly one counter changes per resolution", func(t *testing.T) {
		// Given: a sequence of mixed rounds
		game := newActiveGame()

		playRound(t, game, 8, 0) // player1 wins
		playRound(t, game, 1, 2) // player2 wins (player1 opened as winner)
		playRound(t, game, 3, 3) // draw

		// Then: each round moved exactly one counter
		assert.Equal(t, 1, game.Player1.Score)
		assert.Equal(t, 1, game.Player2.Score)
		assert.Equal(t, 1, game.DrawScore)
		assert.Equal(t, 4, game.CurrentRound)
	})

	t.Run("Error on incomplete round", func(t *testing.T) {
		// Given: only one player has moved
		game := newActiveGame()
		require.NoError(t, SubmitMove(game, entity.RolePlayer1, 5, time.Now()))

		// When: resolution is attempted
		_, err := ResolveRound(game)

		// Then: ErrRoundNotComplete
		require.ErrorIs(t, err, ErrRoundNotComplete)
	})

	t.Run("Error on already resolved round", func(t *testing.T) {
		// Given: a resolved round
		game := newActiveGame()
		playRound(t, game, 7, 3)

		// When: resolution fires again on the same record, simulating a
		// stale duplicate notification
		_, err := ResolveRound(game)

		// Then: the duplicate is rejected and nothing double-increments
		require.ErrorIs(t, err, ErrRoundNotComplete)
		assert.Equal(t, 1, game.Player1.Score)
		assert.Equal(t, 2, game.CurrentRound)
	})

	t.Run("Reaching the win score ends the game", func(t *testing.T) {
		// Given: player1 wins five rounds in a row
		game := newActiveGame()
		winning := []int{4, 5, 6, 7, 8}
		losing := []int{0, 1, 2, 3, 4}

		for i := range winning {
			outcome := playRound(t, game, winning[i], losing[i])
			require.Equal(t, entity.RolePlayer1, outcome.Winner)
		}

		// Then: the game is ended with player1 as winner and input frozen
		require.True(t, game.IsEnded())
		assert.Equal(t, entity.RolePlayer1, game.Winner)
		assert.Equal(t, 5, game.Player1.Score)
		assert.Empty(t, game.CurrentTurn)

		// When: either side tries to keep playing
		err := SubmitMove(game, entity.RolePlayer1, 0, time.Now())

		// Then: ErrGameEnded
		require.ErrorIs(t, err, apperror.ErrGameEnded)
	})
}

func TestRestart(t *testing.T) {
	// Given: a game several rounds in
	game := newActiveGame()
	playRound(t, game, 7, 3)
	playRound(t, game, 4, 4)

	// When: the game restarts
	Restart(game)

	// Then: scores and histories are reset, seats preserved
	assert.Equal(t, 1, game.CurrentRound)
	assert.Equal(t, entity.RolePlayer1, game.CurrentTurn)
	assert.Equal(t, entity.PhaseAwaitingFirst, game.Phase)
	assert.Equal(t, 0, game.DrawScore)
	assert.Equal(t, 0, game.Player1.Score)
	assert.Equal(t, 0, game.Player2.Score)
	assert.Empty(t, game.Player1.UsedNumbers)
	assert.Empty(t, game.Player2.UsedNumbers)
	assert.Equal(t, "p1", game.Player1.ID)
	assert.Equal(t, "p2", game.Player2.ID)
	assert.Nil(t, game.LastMove)
	assert.Equal(t, entity.StatusOngoing, game.Status)
}

func TestRemainingTiles(t *testing.T) {
	// Given: a fixed display order and a used set
	order := []int{3, 1, 4, 0, 5, 8, 2, 7, 6}
	used := []int{4, 0, 7}

	// When: the projection is computed
	remaining := RemainingTiles(order, used)

	// Then: used tiles vanish, order is kept
	require.Equal(t, []int{3, 1, 5, 8, 2, 6}, remaining)
}

func TestShuffledTileOrder(t *testing.T) {
	// When: an order is generated
	order := ShuffledTileOrder()

	// Then: it is a permutation of 0..8
	require.Len(t, order, 9)

	seen := make(map[int]bool)
	for _, number := range order {
		assert.GreaterOrEqual(t, number, entity.MinTile)
		assert.LessOrEqual(t, number, entity.MaxTile)
		assert.False(t, seen[number], "duplicate tile %d", number)
		seen[number] = true
	}
}
