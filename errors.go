package enhancer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorPrefix starts every error string placed in the text slot.
const ErrorPrefix = "Error: "

// Sentinel errors shared by providers.
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrNoProvider         = errors.New("no provider configured")
	ErrEncode             = errors.New("conditioning encode failed")
)

// ErrorKind classifies a failure. It is never surfaced to the host, which only
// sees the error string, but lets callers and tests tell failures apart.
type ErrorKind int

// Error kinds.
const (
	KindNone ErrorKind = iota
	KindAuth
	KindTransport
	KindVendor
	KindResponse
	KindUnknown
)

// String returns the kind name used in hook fields.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuth:
		return "auth"
	case KindTransport:
		return "transport"
	case KindVendor:
		return "vendor"
	case KindResponse:
		return "response"
	default:
		return "unknown"
	}
}

// ProviderError is returned when the vendor answers with a non-200 status.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Type       string
	Code       string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s error: status %d", e.Provider, e.StatusCode)
	}
	if e.StatusCode == http.StatusTooManyRequests {
		return fmt.Sprintf("rate limit exceeded: %s", e.Message)
	}
	return fmt.Sprintf("%s error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// Classify maps an error onto an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var perr *ProviderError
	switch {
	case errors.Is(err, ErrMissingCredentials), errors.Is(err, ErrNoProvider):
		return KindAuth
	case errors.Is(err, ErrMalformedResponse):
		return KindResponse
	case errors.As(err, &perr):
		if perr.StatusCode == http.StatusUnauthorized || perr.StatusCode == http.StatusForbidden {
			return KindAuth
		}
		return KindVendor
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTransport
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransport
	}
	return KindUnknown
}

// FormatError renders an error for the text slot.
func FormatError(err error) string {
	if err == nil {
		return ErrorPrefix + "unknown failure"
	}
	return ErrorPrefix + err.Error()
}
