package apperror

import "errors"

var (
	ErrGameFinished       = errors.New("game is already finished")
	ErrOutOfBounds        = errors.New("cell is out of bounds")
	ErrCellOccupied       = errors.New("cell is already occupied")
	ErrMalformedMove      = errors.New("malformed move")
	ErrUnknownPlayer      = errors.New("unknown player")
	ErrRosterFull         = errors.New("player roster is full")
	ErrInvalidPlayerCount = errors.New("player count must be between 3 and 5")
	ErrInvalidSymbol      = errors.New("symbol must be a single character")
)
