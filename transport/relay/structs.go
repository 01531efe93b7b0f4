package relay

import "encoding/json"

// Message is the relay wire format: an action and an opaque payload.
// The relay never interprets game data, it only pairs and forwards.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type GameStartPayload struct {
	PlayerNumber int `json:"playerNumber"`
}

const (
	ActionRequestMatch         = "requestMatch"
	ActionWaiting              = "waiting"
	ActionGameStart            = "gameStart"
	ActionTurnEnd              = "turnEnd"
	ActionOpponentTurnEnd      = "opponentTurnEnd"
	ActionOpponentDisconnected = "opponentDisconnected"
)
