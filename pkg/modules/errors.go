package modules

import "errors"

var (
	// ErrInvalidIdentity is returned when a module identity is missing one of its parts
	ErrInvalidIdentity = errors.New("invalid module identity")

	// ErrUnknownField is returned when a searchable field name is not recognized
	ErrUnknownField = errors.New("unknown field")
)
