package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/yangsearch/pkg/httputil"
	"github.com/platinummonkey/yangsearch/pkg/observability"
)

// maxBodyBytes bounds bulk load requests.
const maxBodyBytes = 32 << 20

// NewRouter mounts the handlers under PathPrefix. admin and metrics may be nil.
func NewRouter(search *Handlers, admin *AdminHandlers, metrics *observability.Metrics, logger logrus.FieldLogger) http.Handler {
	router := mux.NewRouter()
	router.Use(
		httputil.RequestIDMiddleware(logger),
		observability.RecoveryMiddleware(logger),
		httputil.LoggingMiddleware,
	)
	if metrics != nil {
		router.Use(observability.HTTPMetricsMiddleware(metrics))
	}

	sub := router.PathPrefix(PathPrefix).Subrouter()
	search.RegisterRoutes(sub)
	if admin != nil {
		admin.RegisterRoutes(sub)
		sub.Use(httputil.ContentTypeMiddleware, httputil.MaxBytesMiddleware(maxBodyBytes))
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFoundError(w, "no route for "+r.URL.Path)
	})

	return otelhttp.NewHandler(router, "yangsearch")
}
