// Package report turns stopped timers into execution reports and ships them
// to Pub/Sub and Cloud Storage.
package report

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hamba/avro/v2"

	"github.com/hrom-in-space/yootils/timing"
	"github.com/hrom-in-space/yootils/utc"
)

//go:embed execution.avsc
var executionSchemaJSON string

var executionSchema = avro.MustParse(executionSchemaJSON)

// Execution is the report of one timed execution.
type Execution struct {
	Name           string    `avro:"name" json:"name"`
	StartedAt      time.Time `avro:"started_at" json:"started_at"`
	SecondsElapsed float64   `avro:"seconds_elapsed" json:"seconds_elapsed"`
	Error          string    `avro:"error" json:"error,omitempty"`
}

// NewExecution builds a report from a stopped timer. err is the error the
// timed scope returned, if any.
func NewExecution(name string, startedAt time.Time, timer *timing.StoppedTimer, err error) Execution {
	e := Execution{
		Name:           name,
		StartedAt:      utc.In(startedAt),
		SecondsElapsed: timer.Seconds(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// Schema returns the Avro schema of the report.
func (Execution) Schema() avro.Schema {
	return executionSchema
}

// Failed reports whether the timed scope returned an error.
func (e Execution) Failed() bool {
	return e.Error != ""
}

// Elapsed returns SecondsElapsed as a duration.
func (e Execution) Elapsed() time.Duration {
	return time.Duration(e.SecondsElapsed * float64(time.Second))
}

// Validate checks the report against its schema and basic sanity rules.
func (e Execution) Validate() error {
	if e.Name == "" {
		return errors.New("execution report: name is required")
	}
	if e.SecondsElapsed < 0 {
		return fmt.Errorf("execution report %q: negative duration %v", e.Name, e.SecondsElapsed)
	}
	if err := avro.NewEncoderForSchema(executionSchema, io.Discard).Encode(e); err != nil {
		return fmt.Errorf("validating against schema: %w", err)
	}
	return nil
}
