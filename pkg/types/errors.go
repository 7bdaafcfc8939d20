package types

import "errors"

// Standard storage errors. Store implementations translate backend failures
// into these sentinels so the engine can classify them uniformly.
var (
	ErrNotFound     = errors.New("entity not found")
	ErrInvalidID    = errors.New("invalid entity ID")
	ErrInvalidData  = errors.New("invalid entity data")
	ErrNameRequired = errors.New("name must not be empty")
	ErrDuplicate    = errors.New("duplicate value")
	ErrConflict     = errors.New("conflicting concurrent update")
)
