package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rflorenc/crm-workbench/internal/models"
)

// ErrAuthMissing is returned before any I/O when no API key is available.
var ErrAuthMissing = errors.New("no API key configured: pass api_key or set CRM_API_KEY")

// ErrUnsupportedMethod is returned before any I/O for methods other than
// GET, POST, PUT, PATCH and DELETE.
var ErrUnsupportedMethod = errors.New("unsupported HTTP method")

// Error codes reported to callers.
const (
	CodeAuthMissing     = "auth_missing"
	CodeTransport       = "transport_error"
	CodeRemoteHTTP      = "remote_http_error"
	CodeNotFound        = "not_found"
	CodeAmbiguous       = "ambiguous"
	CodeBadRequest      = "bad_request"
	CodePartialFailure  = "partial_failure"
	CodeInvalidArgument = "invalid_argument"
	CodeInternal        = "internal_error"
)

// Bad request signatures.
const (
	SignatureUnknownStatus   = "unknown_status"
	SignatureInvalidOperator = "invalid_operator"
	SignatureInvalidFilter   = "invalid_filter"
	SignatureInvalidInput    = "invalid_input"
)

// TransportError is a connection, timeout or protocol failure.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteHTTPError is a non-2xx response. Body is truncated and has
// credentials redacted.
type RemoteHTTPError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *RemoteHTTPError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// NotFoundError means a name matched nothing. Candidates lists every name
// that was available to match against.
type NotFoundError struct {
	Kind       string
	Input      string
	Candidates []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s matching %q", e.Kind, e.Input)
}

// AmbiguousError means a name matched more than one candidate.
type AmbiguousError struct {
	Kind    string
	Input   string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q matches more than one %s: %s", e.Input, e.Kind, strings.Join(e.Matches, ", "))
}

// BadRequestError is a request rejected locally or recognized as a caller
// mistake in a remote error. Hint names the discovery operation that
// helps fix it.
type BadRequestError struct {
	Signature string
	Hint      string
	Err       error
}

func (e *BadRequestError) Error() string {
	if e.Err == nil {
		return "bad request"
	}
	return e.Err.Error()
}

func (e *BadRequestError) Unwrap() error { return e.Err }

// BadRequest builds a local BadRequestError for invalid caller input.
func BadRequest(format string, args ...interface{}) error {
	return &BadRequestError{
		Signature: SignatureInvalidInput,
		Err:       fmt.Errorf("%w: %s", models.ErrInvalidArgument, fmt.Sprintf(format, args...)),
	}
}

// Classify maps an error to a caller-facing error code.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var (
		badReq    *BadRequestError
		notFound  *NotFoundError
		ambiguous *AmbiguousError
		remote    *RemoteHTTPError
		transport *TransportError
	)
	switch {
	case errors.Is(err, ErrAuthMissing):
		return CodeAuthMissing
	case errors.As(err, &badReq), errors.Is(err, models.ErrInvalidFilter):
		return CodeBadRequest
	case errors.As(err, &notFound):
		return CodeNotFound
	case errors.As(err, &ambiguous):
		return CodeAmbiguous
	case errors.As(err, &remote):
		return CodeRemoteHTTP
	case errors.As(err, &transport),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return CodeTransport
	case errors.Is(err, models.ErrInvalidArgument), errors.Is(err, ErrUnsupportedMethod):
		return CodeInvalidArgument
	}
	return CodeInternal
}
