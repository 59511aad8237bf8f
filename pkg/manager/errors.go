package manager

import (
	"errors"
	"fmt"

	"github.com/platinummonkey/yangsearch/pkg/engine"
	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/modules"
)

var (
	// ErrIndexingFailure is matched by every *IndexingError
	ErrIndexingFailure = errors.New("document was not stored on any shard")

	// ErrModuleNotFound is returned when a lookup that requires a module finds none
	ErrModuleNotFound = errors.New("module not found")
)

// IndexingError reports a write the engine accepted but no shard stored.
type IndexingError struct {
	Index  string
	Result *engine.IndexResult
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("index %s: %v (total %d, failed %d)",
		e.Index, ErrIndexingFailure, e.Result.Shards.Total, e.Result.Shards.Failed)
}

func (e *IndexingError) Is(target error) bool { return target == ErrIndexingFailure }

// ErrorType classifies err for metrics and logs.
func ErrorType(err error) string {
	var re *engine.ResponseError
	var ce *indices.ConfigurationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, engine.ErrConnectivity):
		return "connectivity"
	case errors.Is(err, engine.ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrIndexingFailure):
		return "indexing"
	case errors.Is(err, modules.ErrInvalidIdentity):
		return "invalid_identity"
	case errors.As(err, &ce):
		return "configuration"
	case errors.As(err, &re):
		return "response"
	default:
		return "other"
	}
}
