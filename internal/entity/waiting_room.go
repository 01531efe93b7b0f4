package entity

// WaitingRoom is the transient single-slot record used to pair two
// clients into a match. It exists only while exactly one player waits.
type WaitingRoom struct {
	GameID  string `json:"game_id"`
	Player1 string `json:"player1"`
}
