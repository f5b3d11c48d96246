package timing

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunContext times fn, which may block on ctx or on other goroutines. The
// measurement is the wall-clock span of the call, blocked time included.
// Cancelling ctx does not stop the timer; the duration is recorded once fn
// returns.
func (t *StartedTimer) RunContext(ctx context.Context, fn func(context.Context) error) (*StoppedTimer, error) {
	return t.Run(func() error {
		return fn(ctx)
	})
}

// ExecutionContext times fn with a fresh timer.
func ExecutionContext(ctx context.Context, fn func(context.Context) error, opts ...Option) (*StoppedTimer, error) {
	return Start(opts...).RunContext(ctx, fn)
}

// Concurrently runs every fn in its own goroutine, each under its own timer,
// and waits for all of them. Timers are returned in the order of fns and are
// all populated, even when an error is returned. The first error cancels the
// context passed to the remaining scopes.
func Concurrently(ctx context.Context, fns ...func(context.Context) error) ([]*StoppedTimer, error) {
	timers := make([]*StoppedTimer, len(fns))
	g, gctx := errgroup.WithContext(ctx)

	for i, fn := range fns {
		started := Start()
		timers[i] = &StoppedTimer{r: started.r}

		g.Go(func() error {
			_, err := started.RunContext(gctx, fn)
			return err
		})
	}

	return timers, g.Wait()
}
