package apperror

import "errors"

var (
	ErrGameEnded        = errors.New("game is already ended")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrAlreadyMoved     = errors.New("already moved this round")
	ErrNumberUsed       = errors.New("number is already used")
	ErrInvalidNumber    = errors.New("invalid tile number")
	ErrNoOpponent       = errors.New("opponent has not joined yet")
)
