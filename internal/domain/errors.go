package domain

import "errors"

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEventNotFound   = errors.New("heist event not found")
	ErrStateNotFound   = errors.New("engine state not found")
	ErrStaleTransition = errors.New("event phase changed concurrently")
	ErrCorruptedState  = errors.New("corrupted engine state")
	ErrUnknownCrime    = errors.New("unknown crime")
	ErrEmptyCatalog    = errors.New("crime catalog is empty")
	ErrInvalidCrime    = errors.New("invalid crime definition")
	ErrVotingClosed    = errors.New("voting is closed")
)
