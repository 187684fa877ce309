package apperror

import "errors"

var (
	ErrGameFinished        = errors.New("game is already finished")
	ErrInvalidBoard        = errors.New("invalid board dimensions")
	ErrInvalidPlayerName   = errors.New("player name is required")
	ErrInvalidMineLayout   = errors.New("invalid mine layout")
	ErrSessionNotFound     = errors.New("session not found")
	ErrPersistenceDisabled = errors.New("persistence is disabled")
	ErrSaveFailed          = errors.New("failed to save finished game")
	ErrReplayUnavailable   = errors.New("replay is unavailable")
)
