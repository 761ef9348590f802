package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed operation for the transport boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindInvalidCredentials
	KindDBUnavailable
	KindDBError
	KindBadRequest
	KindNotFound
	KindCrypto
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindDBUnavailable:
		return "db_unavailable"
	case KindDBError:
		return "db_error"
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindCrypto:
		return "crypto"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindUnauthorized, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindDBUnavailable:
		return http.StatusServiceUnavailable
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage is the fixed client-facing message for kinds that do not carry their own.
func (k Kind) UserMessage() string {
	switch k {
	case KindUnauthorized:
		return "Invalid token"
	case KindInvalidCredentials:
		return "Invalid credentials"
	case KindDBUnavailable:
		return "Database connection failed"
	case KindBadRequest:
		return "Bad request"
	case KindNotFound:
		return "Not found"
	default:
		return "Internal server error"
	}
}

// Error is a failed operation mapped onto the error taxonomy. Message is shown to the
// client; Err is kept for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	// ErrInvalidCredentials is returned for every failed login, whatever the cause.
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: KindInvalidCredentials.UserMessage()}
	// ErrUnauthorized is returned when an operation needs a principal that is absent.
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: KindUnauthorized.UserMessage()}
)

// BadRequest reports invalid client input with a per-field message.
func BadRequest(msg string) error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// NotFound reports a missing resource as "<resource> not found".
func NotFound(resource string) error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// DBUnavailable wraps a pool acquisition failure.
func DBUnavailable(err error) error {
	return &Error{Kind: KindDBUnavailable, Message: KindDBUnavailable.UserMessage(), Err: err}
}

// DBError wraps a failed statement.
func DBError(err error) error {
	return &Error{Kind: KindDBError, Message: KindDBError.UserMessage(), Err: err}
}

// Crypto wraps a hashing failure.
func Crypto(err error) error {
	return &Error{Kind: KindCrypto, Message: KindCrypto.UserMessage(), Err: err}
}

// KindOf returns the kind of err, or KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return KindOf(err).UserMessage()
}
