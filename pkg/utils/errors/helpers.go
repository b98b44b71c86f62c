package errors

import stderrors "errors"

// FromError converts any error to Errno.
// Unwraps fmt.Errorf("%w") chains, so an Errno wrapped by intermediate
// layers (biz service, LLM client) is still recognized.
// Unrecognized errors are wrapped as ErrInternal.
func FromError(err error) *Errno {
	if err == nil {
		return nil
	}
	var e *Errno
	if stderrors.As(err, &e) {
		return e
	}
	return ErrInternal.WithCause(err)
}

// IsCode checks if the error (or any error it wraps) has the given code.
func IsCode(err error, code int) bool {
	var e *Errno
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the error code from an error.
// Returns -1 if no Errno is found in the chain.
func GetCode(err error) int {
	var e *Errno
	if stderrors.As(err, &e) {
		return e.Code
	}
	return -1
}
