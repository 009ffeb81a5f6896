package weblink

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JakeFAU/weblink-inspector/internal/codec"
)

var (
	// ErrNotFound is returned by stores when a lookup matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrRedirectRejected marks a fetch whose final URL differs from the requested one.
	ErrRedirectRejected = errors.New("redirect rejected")
)

// RedirectError reports where a rejected redirect chain ended.
type RedirectError struct {
	Location string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("redirect to %s", e.Location)
}

// Is lets errors.Is match ErrRedirectRejected.
func (e *RedirectError) Is(target error) bool {
	return target == ErrRedirectRejected
}

// HTTPError is a non-2xx response. Status is the server's reason phrase.
type HTTPError struct {
	StatusCode int
	Status     string
}

// NewHTTPError builds an HTTPError with the standard reason phrase for code.
func NewHTTPError(code int) *HTTPError {
	status := http.StatusText(code)
	if status == "" {
		status = fmt.Sprintf("HTTP status %d", code)
	}
	return &HTTPError{StatusCode: code, Status: status}
}

func (e *HTTPError) Error() string {
	return e.Status
}

// TransportError wraps DNS, connection, timeout and other non-HTTP failures.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Failure kinds used as metric labels and log fields.
const (
	FailureEncoding   = "encoding"
	FailureRedirect   = "redirect"
	FailureHTTP       = "http"
	FailureTransport  = "transport"
	FailureExtraction = "extraction"
)

// FailureKind classifies err into one of the Failure* kinds.
func FailureKind(err error) string {
	var (
		httpErr      *HTTPError
		transportErr *TransportError
	)
	switch {
	case errors.Is(err, codec.ErrEncoding):
		return FailureEncoding
	case errors.Is(err, ErrRedirectRejected):
		return FailureRedirect
	case errors.As(err, &httpErr):
		return FailureHTTP
	case errors.As(err, &transportErr):
		return FailureTransport
	default:
		return FailureExtraction
	}
}
