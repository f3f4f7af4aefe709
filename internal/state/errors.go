package state

import "errors"

var (
	ErrInvalidSetting = errors.New("invalid setting")
	ErrInvalidAction  = errors.New("invalid action")
	ErrInvalidRecord  = errors.New("invalid record")
	ErrNoTransition   = errors.New("transition not applicable")
)
