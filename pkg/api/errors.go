package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/yangsearch/pkg/engine"
	"github.com/platinummonkey/yangsearch/pkg/httputil"
	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/manager"
	"github.com/platinummonkey/yangsearch/pkg/modules"
	"github.com/platinummonkey/yangsearch/pkg/observability"
)

// statusFor maps an operation error to an HTTP status.
func statusFor(err error) int {
	var re *engine.ResponseError
	switch {
	case errors.Is(err, indices.ErrUnknownKind),
		errors.Is(err, modules.ErrInvalidIdentity),
		errors.Is(err, modules.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, manager.ErrModuleNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrConnectivity):
		return http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrProtocol),
		errors.Is(err, manager.ErrIndexingFailure),
		errors.As(err, &re):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes the matching error response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := observability.FromContext(r.Context()).WithError(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Debug("request rejected")
	}

	var re *engine.ResponseError
	if errors.As(err, &re) {
		httputil.WriteDetailedError(w, status, err, map[string]string{"type": re.Type})
		return
	}
	httputil.WriteError(w, status, err)
}
