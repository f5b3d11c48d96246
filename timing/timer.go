// Package timing measures the wall-clock duration of a scoped block of work.
//
// A timer comes in two states. A StartedTimer can only run a scope; running it
// hands back a StoppedTimer, which can only be read:
//
//	timer, err := timing.Execution(func() error {
//		time.Sleep(time.Second)
//		return nil
//	})
//	fmt.Println(timer.Seconds()) // ~1
//
// The elapsed duration is recorded on every exit path of the scope, including
// error returns and panics. The scope's error is returned untouched.
package timing

import (
	"time"
)

// Clock is the instant source used by a timer. Readings must carry a
// monotonic component for durations to be immune to wall-clock adjustments,
// which time.Now provides.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// record is the state shared by the Started and Stopped views of one timer.
type record struct {
	elapsed   time.Duration
	clock     Clock
	recorders []Recorder
}

// Option configures a timer created by Start.
type Option func(*record)

// WithClock replaces the monotonic system clock.
func WithClock(c Clock) Option {
	return func(r *record) {
		r.clock = c
	}
}

// WithRecorder attaches recorders that receive the elapsed duration each time
// a scope exits.
func WithRecorder(recorders ...Recorder) Option {
	return func(r *record) {
		r.recorders = append(r.recorders, recorders...)
	}
}

// StartedTimer is a timer that has not measured anything yet.
type StartedTimer struct {
	r *record
}

// StoppedTimer is a timer whose scope has exited. Its elapsed duration is
// final unless the timer is deliberately restarted.
type StoppedTimer struct {
	r *record
}

// Start creates a timer in the started state.
func Start(opts ...Option) *StartedTimer {
	r := &record{clock: systemClock{}}
	for _, opt := range opts {
		opt(r)
	}
	return &StartedTimer{r: r}
}

// Execution times fn with a fresh timer. It is shorthand for Start().Run(fn).
func Execution(fn func() error, opts ...Option) (*StoppedTimer, error) {
	return Start(opts...).Run(fn)
}

// Run times fn. The elapsed duration is stored before Run returns, and also
// when fn panics, in which case the panic continues after recording.
func (t *StartedTimer) Run(fn func() error) (*StoppedTimer, error) {
	start := t.r.clock.Now()
	defer t.r.stop(start)

	return &StoppedTimer{r: t.r}, fn()
}

func (r *record) stop(start time.Time) {
	elapsed := r.clock.Now().Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	r.elapsed = elapsed

	for _, rec := range r.recorders {
		rec.Record(elapsed)
	}
}

// Elapsed returns the measured duration of the timed scope.
func (t *StoppedTimer) Elapsed() time.Duration {
	return t.r.elapsed
}

// Seconds returns Elapsed as fractional seconds.
func (t *StoppedTimer) Seconds() float64 {
	return t.r.elapsed.Seconds()
}

// Restart returns the same timer in the started state. Running it again
// overwrites the elapsed duration; the previous measurement is lost.
// Prefer a fresh Start where possible.
func (t *StoppedTimer) Restart() *StartedTimer {
	return &StartedTimer{r: t.r}
}
