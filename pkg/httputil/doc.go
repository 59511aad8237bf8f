// Package httputil provides the JSON response, request parsing and
// middleware helpers shared by the HTTP handlers.
//
// Responses:
//
//	httputil.WriteJSON(w, http.StatusOK, suggestions)
//	httputil.WriteNotFoundError(w, "module not found")
//
// Requests:
//
//	name, ok := httputil.ParsePathStringOrError(w, r, "name")
//	if !ok {
//		return // error response already written
//	}
//
// Middleware:
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware(logger),
//		httputil.LoggingMiddleware,
//		httputil.MaxBytesMiddleware(10*1024*1024),
//	)(router)
package httputil
