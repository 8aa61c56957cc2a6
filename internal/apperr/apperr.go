// Package apperr defines the error taxonomy shared by the generator, the
// synchronizers, the store and the HTTP layer.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind classifies a failure for routing to a status code.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidRequest
	KindNotFound
	KindNoProviderAvailable
	KindGenerationFailed
	KindSchemaViolation
	KindSyncFailed
	KindStorageFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindNotFound:
		return "NotFound"
	case KindNoProviderAvailable:
		return "NoProviderAvailable"
	case KindGenerationFailed:
		return "GenerationFailed"
	case KindSchemaViolation:
		return "SchemaViolation"
	case KindSyncFailed:
		return "SyncFailed"
	case KindStorageFailure:
		return "StorageFailure"
	default:
		return "Unknown"
	}
}

// Error is a classified failure. Raw holds provider output kept for
// diagnostics when a response could not be interpreted.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Raw  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(e.Kind.String())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrKind reports the classification of e.
func (e *Error) ErrKind() Kind { return e.Kind }

// kinded is implemented by errors that carry their own classification,
// such as *Error and architecture.SchemaViolation.
type kinded interface {
	ErrKind() Kind
}

// New returns a classified error without a cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// InvalidRequest is shorthand for a caller error.
func InvalidRequest(op, msg string) *Error {
	return New(KindInvalidRequest, op, msg)
}

// NotFound is shorthand for a missing resource.
func NotFound(op, msg string) *Error {
	return New(KindNotFound, op, msg)
}

// KindOf returns the outermost classification found in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var k kinded
	if errors.As(err, &k) {
		return k.ErrKind()
	}
	return KindUnknown
}

// Is reports whether err carries the given classification.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// RawOutput returns the provider output attached anywhere in err's chain.
func RawOutput(err error) string {
	var e *Error
	for err != nil {
		if errors.As(err, &e) {
			if e.Raw != "" {
				return e.Raw
			}
			err = e.Err
			continue
		}
		break
	}
	return ""
}

// HTTPStatus maps err to a response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidRequest, KindSchemaViolation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindNoProviderAvailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
