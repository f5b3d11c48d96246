package timing

import (
	"bytes"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserverRecorder(t *testing.T) {
	var observed []float64
	obs := prometheus.ObserverFunc(func(v float64) {
		observed = append(observed, v)
	})

	clock := newFakeClock(base, 0, 1500*time.Millisecond)
	_, err := Execution(func() error { return nil }, WithClock(clock), WithRecorder(ObserverRecorder(obs)))
	require.NoError(t, err)

	assert.Equal(t, []float64{1.5}, observed)
}

func TestObserverRecorder_Histogram(t *testing.T) {
	hist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "yootils_execution_seconds",
		Help: "Duration of timed executions.",
	})

	_, err := Execution(func() error { return nil }, WithRecorder(ObserverRecorder(hist)))
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(hist))
}

func TestLogRecorder(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	clock := newFakeClock(base, 0, 1500*time.Millisecond)
	_, err := Execution(func() error { return nil }, WithClock(clock), WithRecorder(LogRecorder(logger, "upload")))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"name":"upload"`)
	assert.Contains(t, out, `"elapsed":1500`)
	assert.Contains(t, out, "execution timed")
}

func TestRecorders_CalledOnErrorAndOnEveryRun(t *testing.T) {
	calls := 0
	rec := RecorderFunc(func(time.Duration) { calls++ })

	timer, err := Execution(func() error { return assert.AnError }, WithRecorder(rec))
	assert.ErrorIs(t, err, assert.AnError)

	_, err = timer.Restart().Run(func() error { return nil })
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}
