package indices

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned when an index kind is not recognized
	ErrUnknownKind = errors.New("unknown index kind")

	// ErrSchemaNotFound is returned when no schema resource exists for a kind
	ErrSchemaNotFound = errors.New("index schema not found")

	// ErrInvalidSchema is returned when a schema resource cannot be parsed
	ErrInvalidSchema = errors.New("invalid index schema")
)

// ConfigurationError reports a missing or broken schema for an index kind.
type ConfigurationError struct {
	Kind Kind
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("index %q: %v", e.Kind, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
