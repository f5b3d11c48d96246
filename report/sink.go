package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hrom-in-space/yootils/simpler"
	"github.com/hrom-in-space/yootils/timing"
	"github.com/hrom-in-space/yootils/utc"
)

// objectTimeLayout sorts lexically in chronological order.
const objectTimeLayout = "20060102T150405.000000000Z"

// Publisher publishes a JSON message to a topic.
type Publisher interface {
	PublishMessage(ctx context.Context, topicID string, object any) error
}

// Archiver stores schematized JSON documents and raw files in a bucket.
type Archiver interface {
	UploadJSONSchematized(ctx context.Context, bucket, name string, object simpler.SchemaProvider) error
	UploadFile(ctx context.Context, bucket, name string, content io.Reader) error
}

var (
	_ Publisher  = (*simpler.PubSubClient)(nil)
	_ Archiver   = simpler.StorageClient(nil)
	_ Downloader = simpler.StorageClient(nil)
)

// Sink delivers execution reports to a Pub/Sub topic, a Cloud Storage bucket,
// or both.
type Sink struct {
	publisher Publisher
	topicID   string

	archiver Archiver
	bucket   string
	prefix   string

	logger zerolog.Logger
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithPublisher publishes every report to topicID.
func WithPublisher(p Publisher, topicID string) SinkOption {
	return func(s *Sink) {
		s.publisher = p
		s.topicID = topicID
	}
}

// WithArchiver uploads every report to bucket under prefix.
func WithArchiver(a Archiver, bucket, prefix string) SinkOption {
	return func(s *Sink) {
		s.archiver = a
		s.bucket = bucket
		s.prefix = prefix
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) SinkOption {
	return func(s *Sink) {
		s.logger = logger
	}
}

// NewSink creates a Sink. Without a publisher or archiver it only validates.
func NewSink(opts ...SinkOption) *Sink {
	s := &Sink{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates e and hands it to every configured target. Failures of
// the targets are joined; one failing does not skip the other.
func (s *Sink) Submit(ctx context.Context, e Execution) error {
	if err := e.Validate(); err != nil {
		return err
	}

	var errs []error
	if s.publisher != nil {
		if err := s.publisher.PublishMessage(ctx, s.topicID, e); err != nil {
			errs = append(errs, fmt.Errorf("publishing execution report: %w", err))
		}
	}
	if s.archiver != nil {
		name := s.ObjectName(e)
		if err := s.archiver.UploadJSONSchematized(ctx, s.bucket, name, e); err != nil {
			errs = append(errs, fmt.Errorf("archiving execution report to %s: %w", name, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.logger.Debug().
		Str("name", e.Name).
		Float64("seconds_elapsed", e.SecondsElapsed).
		Bool("failed", e.Failed()).
		Msg("execution report submitted")
	return nil
}

// ArchiveOutput uploads content, usually the captured output of the timed
// work, next to the archived report of e. It needs an archiver.
func (s *Sink) ArchiveOutput(ctx context.Context, e Execution, content io.Reader) error {
	if s.archiver == nil {
		return errors.New("archiving output: no archiver configured")
	}
	name := s.OutputObjectName(e)
	if err := s.archiver.UploadFile(ctx, s.bucket, name, content); err != nil {
		return fmt.Errorf("archiving output to %s: %w", name, err)
	}
	s.logger.Debug().Str("name", e.Name).Str("object", name).Msg("execution output archived")
	return nil
}

// ObjectName is the object path a report is archived under:
// <prefix>/<name>/<started_at>.json.
func (s *Sink) ObjectName(e Execution) string {
	return path.Join(s.prefix, objectSegment(e.Name), utc.In(e.StartedAt).Format(objectTimeLayout)+".json")
}

// OutputObjectName is the object path the output of e is archived under:
// <prefix>/<name>/<started_at>.log.
func (s *Sink) OutputObjectName(e Execution) string {
	return OutputObjectNameFor(s.ObjectName(e))
}

// objectSegment turns an execution name into a single path segment that
// path.Join cannot collapse or climb out of.
func objectSegment(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	switch name {
	case "":
		return "_"
	case ".", "..":
		return strings.Repeat("_", len(name))
	}
	return name
}

// TimeAndSubmit times fn, submits the report and returns it along with fn's
// error, unchanged. A failed submission is logged, never returned. The report
// is submitted even when ctx has been cancelled.
func TimeAndSubmit(ctx context.Context, s *Sink, name string, fn func(context.Context) error) (Execution, error) {
	startedAt := utc.Now()
	timer, err := timing.ExecutionContext(ctx, fn)

	e := NewExecution(name, startedAt, timer, err)
	if subErr := s.Submit(context.WithoutCancel(ctx), e); subErr != nil {
		s.logger.Warn().Err(subErr).Str("name", name).Msg("submitting execution report")
	}

	return e, err
}
