package propagate

import (
	"context"
	"fmt"
)

// PanicError carries a recovered panic value that was not itself an error.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Call runs fn and captures its outcome. Errors are kept as-is. A panic is
// recovered: an error panic value is kept as-is, anything else becomes a
// *PanicError.
func Call[T any](fn func() (T, error)) (res Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			res = Failure[T](panicToError(p))
		}
	}()

	v, err := fn()
	if err != nil {
		return Failure[T](err)
	}
	return Success(v)
}

func panicToError(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return &PanicError{Value: p}
}

// Wrap turns a single-argument function into one that returns a Result.
func Wrap[A, T any](fn func(A) (T, error)) func(A) Result[T] {
	return func(a A) Result[T] {
		return Call(func() (T, error) {
			return fn(a)
		})
	}
}

// Async runs fn in a new goroutine. The returned channel yields exactly one
// Result and is then closed.
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		defer close(out)
		out <- Call(func() (T, error) {
			return fn(ctx)
		})
	}()
	return out
}
