package errors

import "errors"

var (
	ErrIndexOutOfRange  = errors.New("index is outside the valid range")
	ErrNilMove          = errors.New("move is nil")
	ErrMoveOwned        = errors.New("move already belongs to the history")
	ErrGameNotFound     = errors.New("game not found")
	ErrGameFinished     = errors.New("game is already finished")
	ErrWrongTurn        = errors.New("it is not this player's turn")
	ErrIllegalMove      = errors.New("illegal move")
	ErrCreateGameFailed = errors.New("create game failed")
	ErrInternal         = errors.New("internal error")
)
