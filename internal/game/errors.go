package game

import "errors"

var (
	ErrInvalidRecord = errors.New("invalid game record")
	ErrIllegalMove   = errors.New("illegal move")
)
