// Package engine defines the boundary between yangsearch and a document
// search engine.
//
// Engine is implemented by the opensearch sub-package for a remote
// OpenSearch cluster and by the embedded sub-package for an in-process
// index. Both report failures with the same taxonomy:
//
//   - *ConnectivityError: the engine could not be reached (refused, timeout,
//     cancelled context). errors.Is(err, ErrConnectivity) holds.
//   - *ProtocolError: the engine answered with something that could not be
//     decoded. errors.Is(err, ErrProtocol) holds.
//   - *ResponseError: the engine reported a failure, for example
//     resource_already_exists_exception or index_not_found_exception.
//
// Results are plain structs shaped after the engine's own responses so that
// callers can hand them back unchanged.
package engine
