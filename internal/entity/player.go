package entity

// Player is the per-client identity record, keyed by a stable random id.
type Player struct {
	ID     string `json:"id"`
	GameID string `json:"game_id,omitempty"`
	Role   Role   `json:"role,omitempty"`
}
