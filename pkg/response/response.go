package response

import "errors"

// Error pairs an HTTP status code with its message so the handler layer
// can map it straight onto the wire.
type Error struct {
	Code int
	Err  error
}

func NewError(code int, msg string) error {
	return &Error{Code: code, Err: errors.New(msg)}
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code && e.Err.Error() == other.Err.Error()
}
