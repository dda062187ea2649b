package models

// Result is the envelope every action returns: either Ok(value) or Err(kind, message).
// The zero value is not meaningful; build results with Ok, Err or Fail.
type Result[T any] struct {
	value   T
	ok      bool
	kind    string
	message string
}

// Ok wraps a successful payload.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Err builds a failure of the given kind with a user-facing message.
func Err[T any](kind, message string) Result[T] {
	return Result[T]{kind: kind, message: message}
}

// Fail converts err into a failure. Domain errors keep their own kind and message;
// internal errors are reduced to fallback so implementation details stay server-side.
func Fail[T any](err error, fallback string) Result[T] {
	appErr := AsAppError(err)
	if appErr.Code == CodeInternal {
		return Err[T](CodeInternal, fallback)
	}
	return Err[T](appErr.Code, appErr.Message)
}

// Success reports whether the result carries a payload.
func (r Result[T]) Success() bool { return r.ok }

// Value returns the payload; it is the zero value on failure.
func (r Result[T]) Value() T { return r.value }

// Kind returns the failure kind, empty on success.
func (r Result[T]) Kind() string { return r.kind }

// Message returns the user-facing failure message, empty on success.
func (r Result[T]) Message() string { return r.message }

// Unwrap returns the payload or the failure as an *AppError.
func (r Result[T]) Unwrap() (T, error) {
	if r.ok {
		return r.value, nil
	}
	return r.value, &AppError{Code: r.kind, Message: r.message}
}

// Empty is the payload of actions that only report success.
type Empty struct{}
