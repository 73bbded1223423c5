package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrSessionExpired is returned by every operation that needs a token when there is none,
	// and by any request the server answered with 401.
	ErrSessionExpired error = &AuthError{msg: "session expired, please log in again"}

	// ErrBusy is returned when the same logical operation is already in flight.
	ErrBusy = errors.New("operation already in progress")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// Field returns the message reported for the given field, if any.
func (err *ValidationError) Field(name string) (string, bool) {
	for _, fe := range err.Fields {
		if fe.Field == name {
			return fe.Error, true
		}
	}
	return "", false
}

// AuthError means the request cannot be made (or was refused) for lack of a valid session.
type AuthError struct {
	msg string
}

func NewAuthError(msg string) error {
	return &AuthError{msg: msg}
}

func (err *AuthError) Error() string {
	return err.msg
}

type NotFoundError struct {
	Path    string
	Message string
}

func (err *NotFoundError) Error() string {
	if err.Message != "" {
		return err.Message
	}
	return "not found: " + err.Path
}

// APIError is a transport failure (Status 0) or a non-2xx answer other than 401 and 404.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (err *APIError) Error() string {
	if err.Err != nil && err.Status == 0 {
		return fmt.Sprintf("%s: %v", err.Message, err.Err)
	}
	return err.Message
}

func (err *APIError) Unwrap() error {
	return err.Err
}

// SchemaError means a 2xx body did not match the expected wire schema.
type SchemaError struct {
	Endpoint string
	Err      error
}

func (err *SchemaError) Error() string {
	return fmt.Sprintf("unexpected response from %s: %v", err.Endpoint, err.Err)
}

func (err *SchemaError) Unwrap() error {
	return err.Err
}

func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func IsAuth(err error) bool {
	var aErr *AuthError
	return errors.As(err, &aErr)
}

func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}

// UserMessage returns the text to show for err, or fallback when err carries nothing presentable.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var (
		vErr   *ValidationError
		aErr   *AuthError
		nfErr  *NotFoundError
		apiErr *APIError
	)
	switch {
	case errors.As(err, &vErr):
		if msg := vErr.Error(); msg != "" {
			return msg
		}
	case errors.As(err, &aErr):
		return aErr.Error()
	case errors.As(err, &nfErr):
		if nfErr.Message != "" {
			return nfErr.Message
		}
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
	case errors.Cause(err) == ErrBusy:
		return ErrBusy.Error()
	}
	return fallback
}
