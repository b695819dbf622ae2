package model

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a transport failure so callers can branch without string matching.
type Kind int

const (
	// KindUnknown is an unclassified failure.
	KindUnknown Kind = iota
	// KindNetwork is a connection level failure.
	KindNetwork
	// KindTimeout means the per-call deadline elapsed.
	KindTimeout
	// KindRateLimited means the endpoint or the local limiter refused the call.
	KindRateLimited
	// KindServer is a 5xx style provider failure.
	KindServer
	// KindAuth is a credential or permission failure.
	KindAuth
	// KindInvalidRequest means the provider rejected the request as malformed.
	KindInvalidRequest
	// KindMalformedResponse means the provider answered with no usable content.
	KindMalformedResponse
	// KindCircuitOpen means the circuit breaker short-circuited the call.
	KindCircuitOpen
	// KindCanceled means the caller's context was canceled.
	KindCanceled
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	case KindAuth:
		return "auth"
	case KindInvalidRequest:
		return "invalid_request"
	case KindMalformedResponse:
		return "malformed_response"
	case KindCircuitOpen:
		return "circuit_open"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// TransportError is the single error type returned by Model implementations.
type TransportError struct {
	Kind       Kind
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	} else if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%s] %s (kind=%s, status=%d)", e.Provider, msg, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s (kind=%s)", e.Provider, msg, e.Kind)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// FromStatusCode maps an HTTP status code to a TransportError.
func FromStatusCode(provider string, status int, message string, cause error) *TransportError {
	te := &TransportError{Provider: provider, StatusCode: status, Message: message, Cause: cause}
	switch {
	case status == 400, status == 404, status == 413, status == 422:
		te.Kind = KindInvalidRequest
	case status == 401, status == 403:
		te.Kind = KindAuth
	case status == 408:
		te.Kind = KindTimeout
	case status == 429:
		te.Kind = KindRateLimited
	case status >= 500:
		te.Kind = KindServer
	default:
		te.Kind = KindUnknown
	}
	return te
}

// FromContext converts a context error into a TransportError.
func FromContext(provider string, err error) *TransportError {
	kind := KindCanceled
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &TransportError{Kind: kind, Provider: provider, Cause: err}
}

// Wrap classifies an arbitrary adapter failure. Existing TransportErrors pass
// through unchanged; context errors become timeout or canceled; everything
// else is attributed to the given kind.
func Wrap(provider string, kind Kind, err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FromContext(provider, err)
	}
	return &TransportError{Kind: kind, Provider: provider, Cause: err}
}

// IsRetryable reports whether err is a transient transport failure.
func IsRetryable(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	switch te.Kind {
	case KindNetwork, KindTimeout, KindRateLimited, KindServer, KindUnknown:
		return true
	default:
		return false
	}
}

// KindOf returns the Kind of err, or KindUnknown when err is not a TransportError.
func KindOf(err error) Kind {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}
