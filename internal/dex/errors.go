package dex

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bizk/ERC20-gasless-swap/internal/oneinch"
)

type ErrorKind string

const (
	// InvalidRequest is a bad or missing input, rejected before any
	// upstream call. Callers must not retry it.
	InvalidRequest ErrorKind = "invalid_request"
	// UpstreamError is an aggregator-side failure, surfaced with the
	// upstream status and message.
	UpstreamError ErrorKind = "upstream_error"
)

// Error is the only error type that crosses the proxy boundary. Raw
// transport failures never escape unclassified.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Status  int       `json:"status"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
}

func invalidRequest(format string, args ...any) *Error {
	return &Error{
		Kind:    InvalidRequest,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf(format, args...),
	}
}

// classify normalizes an aggregator client failure into an Error.
func classify(err error) *Error {
	var statusErr *oneinch.StatusError
	if errors.As(err, &statusErr) {
		return &Error{
			Kind:    UpstreamError,
			Status:  statusErr.Status,
			Message: statusErr.Message,
		}
	}
	return &Error{
		Kind:    UpstreamError,
		Status:  http.StatusBadGateway,
		Message: err.Error(),
	}
}
