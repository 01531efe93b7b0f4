package entity

const (
	StatusWaiting = "waiting"
	StatusOngoing = "ongoing"
	StatusEnded   = "ended"

	// PhaseAwaitingFirst - nobody has moved in the current round yet.
	// PhaseAwaitingSecond - exactly one player has moved.
	PhaseAwaitingFirst  = "awaiting_first"
	PhaseAwaitingSecond = "awaiting_second"
)

const (
	MinTile = 0
	MaxTile = 8

	WinScore = 5
)

type Role string

const (
	RolePlayer1 Role = "player1"
	RolePlayer2 Role = "player2"
)

// PlayerState is one side of the shared game record.
type PlayerState struct {
	ID          string `json:"id"`
	Score       int    `json:"score"`
	UsedNumbers []int  `json:"used_numbers"`
}

// Move is the pending half of a round, cleared on resolution.
type Move struct {
	Player    string `json:"player"`
	Number    int    `json:"number"`
	Timestamp int64  `json:"timestamp"`
}

// Game is the single shared mutable record both clients race on.
type Game struct {
	ID           string       `json:"id"`
	CurrentRound int          `json:"current_round"`
	CurrentTurn  Role         `json:"current_turn"`
	Phase        string       `json:"phase"`
	DrawScore    int          `json:"draw_score"`
	Player1      *PlayerState `json:"player1,omitempty"`
	Player2      *PlayerState `json:"player2,omitempty"`
	LastMove     *Move        `json:"last_move,omitempty"`
	Status       string       `json:"status"`
	Winner       Role         `json:"winner,omitempty"`
}

func NewGame(id string) *Game {
	return &Game{
		ID:           id,
		CurrentRound: 1,
		CurrentTurn:  RolePlayer1,
		Phase:        PhaseAwaitingFirst,
		Status:       StatusWaiting,
	}
}

func NewPlayerState(playerID string) *PlayerState {
	return &PlayerState{
		ID:          playerID,
		Score:       0,
		UsedNumbers: []int{},
	}
}

func Opponent(role Role) Role {
	if role == RolePlayer1 {
		return RolePlayer2
	}
	return RolePlayer1
}

func (that *Game) PlayerByRole(role Role) *PlayerState {
	if role == RolePlayer1 {
		return that.Player1
	}
	return that.Player2
}

// RoleOf - resolves the fixed role of a client id within this game.
func (that *Game) RoleOf(playerID string) (Role, bool) {
	if that.Player1 != nil && that.Player1.ID == playerID {
		return RolePlayer1, true
	}

	if that.Player2 != nil && that.Player2.ID == playerID {
		return RolePlayer2, true
	}

	return "", false
}

func (that *Game) BothJoined() bool {
	return that.Player1 != nil && that.Player1.ID != "" &&
		that.Player2 != nil && that.Player2.ID != ""
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsEnded() bool {
	return that.Status == StatusEnded
}

// LastNumber - the number a role played most recently.
func (that *Game) LastNumber(role Role) (int, bool) {
	player := that.PlayerByRole(role)
	if player == nil || len(player.UsedNumbers) == 0 {
		return 0, false
	}

	return player.UsedNumbers[len(player.UsedNumbers)-1], true
}

func (that *Game) HasUsed(role Role, number int) bool {
	player := that.PlayerByRole(role)
	if player == nil {
		return false
	}

	for _, used := range player.UsedNumbers {
		if used == number {
			return true
		}
	}

	return false
}

// HasMovedThisRound - a player's move count reaches CurrentRound once
// they have played the current round.
func (that *Game) HasMovedThisRound(role Role) bool {
	player := that.PlayerByRole(role)
	if player == nil {
		return false
	}

	return len(player.UsedNumbers) >= that.CurrentRound
}
