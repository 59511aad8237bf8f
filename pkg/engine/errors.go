package engine

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// ResourceAlreadyExists is the error type reported when creating an existing index.
	ResourceAlreadyExists = "resource_already_exists_exception"
	// IndexNotFound is the error type reported for operations on a missing index.
	IndexNotFound = "index_not_found_exception"
)

var (
	// ErrConnectivity is matched by every *ConnectivityError
	ErrConnectivity = errors.New("search engine unreachable")

	// ErrProtocol is matched by every *ProtocolError
	ErrProtocol = errors.New("unexpected search engine response")
)

// ConnectivityError reports a failure to reach the engine.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrConnectivity, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

func (e *ConnectivityError) Is(target error) bool { return target == ErrConnectivity }

// ProtocolError reports an engine response that could not be decoded.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrProtocol, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// ResponseError is a failure reported by the engine itself.
type ResponseError struct {
	Op     string
	Status int
	Type   string
	Reason string
	Index  string
}

func (e *ResponseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.Status, e.Type, e.Reason)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, e.Type)
}

// Cause converts the error into the error object of an engine response.
func (e *ResponseError) Cause() *ErrorCause {
	return &ErrorCause{Type: e.Type, Reason: e.Reason, Index: e.Index}
}

// IsAlreadyExists reports whether err is a resource_already_exists_exception.
func IsAlreadyExists(err error) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.Type == ResourceAlreadyExists
}

// IsNotFound reports whether err is a 404 or an index_not_found_exception.
func IsNotFound(err error) bool {
	var re *ResponseError
	return errors.As(err, &re) && (re.Status == http.StatusNotFound || re.Type == IndexNotFound)
}

// HasStatus reports whether err is a response error with one of the given statuses.
func HasStatus(err error, statuses ...int) bool {
	var re *ResponseError
	if !errors.As(err, &re) {
		return false
	}
	for _, s := range statuses {
		if re.Status == s {
			return true
		}
	}
	return false
}
