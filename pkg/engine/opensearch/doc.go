// Package opensearch implements engine.Engine on top of the OpenSearch REST API.
//
// The client issues one request per call and never retries: retries are the
// caller's decision. Transport failures, including timeouts and cancelled
// contexts, are returned as *engine.ConnectivityError. Error responses carry
// the engine's error type and reason in an *engine.ResponseError.
//
// HTTP calls are traced with otelhttp.
package opensearch
