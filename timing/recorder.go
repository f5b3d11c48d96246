package timing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Recorder receives the elapsed duration of a timed scope.
type Recorder interface {
	Record(time.Duration)
}

// RecorderFunc adapts a plain function to a Recorder.
type RecorderFunc func(time.Duration)

func (f RecorderFunc) Record(d time.Duration) { f(d) }

// ObserverRecorder feeds elapsed seconds into a prometheus histogram or summary.
func ObserverRecorder(o prometheus.Observer) Recorder {
	return RecorderFunc(func(d time.Duration) {
		o.Observe(d.Seconds())
	})
}

// LogRecorder writes a debug event for every timed scope.
func LogRecorder(logger zerolog.Logger, name string) Recorder {
	return RecorderFunc(func(d time.Duration) {
		logger.Debug().
			Str("name", name).
			Dur("elapsed", d).
			Msg("execution timed")
	})
}
