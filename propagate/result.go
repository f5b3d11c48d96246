// Package propagate turns the outcome of a call into a plain value: either a
// success carrying the result or the error (or recovered panic) it failed with.
//
// Failures are matched by type with As, which mirrors a type switch over the
// error kinds a caller expects while still surfacing everything else:
//
//	res := propagate.Call(func() (int, error) { return strconv.Atoi(s) })
//	if v, err := res.Get(); err == nil {
//		use(v)
//	}
//	if numErr, ok := propagate.As[*strconv.NumError](res); ok {
//		...
//	}
package propagate

import (
	"errors"
	"fmt"
)

// Result is the outcome of a call.
type Result[T any] struct {
	value T
	err   error
}

// Success wraps a successful value.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Failure wraps an error. A nil error yields a success with the zero value.
func Failure[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// IsSuccess reports whether the call succeeded.
func (r Result[T]) IsSuccess() bool {
	return r.err == nil
}

// Value returns the success value, or the zero value for a failure.
func (r Result[T]) Value() T {
	return r.value
}

// Err returns the failure, exactly as the call produced it.
func (r Result[T]) Err() error {
	return r.err
}

// Get unpacks the result into Go's usual value, error pair.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// ValueOr returns the success value or fallback.
func (r Result[T]) ValueOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

func (r Result[T]) String() string {
	if r.err != nil {
		return fmt.Sprintf("Failure(%v)", r.err)
	}
	return fmt.Sprintf("Success(%v)", r.value)
}

// As reports whether a failed result's error matches the target type E,
// following errors.As. Successes never match.
func As[E error, T any](r Result[T]) (E, bool) {
	var target E
	if r.err == nil {
		return target, false
	}
	ok := errors.As(r.err, &target)
	return target, ok
}
