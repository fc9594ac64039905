package session

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrInvalidTitle     = errors.New("invalid session title")
	ErrInvalidSessionID = errors.New("invalid session id")
	ErrInvalidMode      = errors.New("invalid mode")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidPatch     = errors.New("invalid section patch")
	ErrSessionNotFound  = errors.New("session not found")
	ErrTimeout          = errors.New("file operation timed out")
)

// Text codes attached to every failure Result.
const (
	CodeValidation = "SESSION_VALIDATION_FAILED"
	CodeNotFound   = "SESSION_NOT_FOUND"
	CodeIOFailed   = "SESSION_IO_FAILED"
	CodeIOTimeout  = "SESSION_IO_TIMEOUT"
)

func wrapValidationError(err error) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "session validation failed").
		WithTextCode(CodeValidation)
}

// Not-found shares the validation category: callers cannot tell a
// well-formed missing id from a malformed one.
func wrapNotFoundError(err error) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "session not found").
		WithTextCode(CodeNotFound)
}

func wrapIOError(err error) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	if errors.Is(err, ErrTimeout) {
		return goerrors.Wrap(err, goerrors.CategoryCommand, "session file operation timed out").
			WithTextCode(CodeIOTimeout)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "session file operation failed").
		WithTextCode(CodeIOFailed)
}

// ioCode classifies an infrastructure error for Result.Code.
func ioCode(err error) string {
	if errors.Is(err, ErrTimeout) {
		return CodeIOTimeout
	}
	return CodeIOFailed
}

func failure(code string, wrapped error, cause error) Result {
	return Result{Success: false, Error: cause.Error(), Code: code, Err: wrapped}
}
