package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrom-in-space/yootils/report"
	"github.com/hrom-in-space/yootils/simpler"
)

var timeCmd = &cobra.Command{
	Use:   "time [flags] -- command [args...]",
	Short: "Time the execution of a command",
	Long: `Runs a command, prints how long it took and, when a topic or bucket is
configured, submits an execution report. The command's exit code is preserved.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTime,
}

func init() {
	rootCmd.AddCommand(timeCmd)

	f := timeCmd.Flags()
	// Flags after the command name belong to the command.
	f.SetInterspersed(false)
	f.String("name", "", "report name (default is the command's base name)")
	f.String("project", "", "Google Cloud project of the Pub/Sub topic")
	f.String("topic", "", "Pub/Sub topic to publish the execution report to")
	f.String("bucket", "", "Cloud Storage bucket to archive the execution report in")
	f.String("prefix", "executions", "object prefix inside the bucket")
	f.Bool("archive-output", false, "also archive the command's stdout and stderr next to the report (needs --bucket)")

	for _, key := range []string{"name", "project", "topic", "bucket", "prefix", "archive-output"} {
		_ = viper.BindPFlag("time."+key, f.Lookup(key))
	}
}

func runTime(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	archive := viper.GetBool("time.archive-output")
	if archive && viper.GetString("time.bucket") == "" {
		return errors.New("--bucket is required with --archive-output")
	}

	sink, closeSink, err := newSink(ctx)
	if err != nil {
		return err
	}
	defer closeSink()

	name := viper.GetString("time.name")
	if name == "" {
		name = filepath.Base(args[0])
	}

	e, err := timeCommand(ctx, sink, name, args, cmd.OutOrStdout(), cmd.ErrOrStderr(), archive)
	fmt.Fprintf(cmd.ErrOrStderr(), "%s took %.3fs\n", e.Name, e.SecondsElapsed)
	return err
}

// timeCommand runs argv with the given output streams and reports it to sink.
// With archiveOutput the combined output is also uploaded next to the report.
func timeCommand(ctx context.Context, sink *report.Sink, name string, argv []string, stdout, stderr io.Writer, archiveOutput bool) (report.Execution, error) {
	var captured lockedBuffer
	if archiveOutput {
		stdout = io.MultiWriter(stdout, &captured)
		stderr = io.MultiWriter(stderr, &captured)
	}

	e, err := report.TimeAndSubmit(ctx, sink, name, func(ctx context.Context) error {
		c := exec.CommandContext(ctx, argv[0], argv[1:]...)
		c.Stdin = os.Stdin
		c.Stdout = stdout
		c.Stderr = stderr
		return c.Run()
	})

	if archiveOutput {
		if archErr := sink.ArchiveOutput(context.WithoutCancel(ctx), e, captured.Reader()); archErr != nil {
			logger.Warn().Err(archErr).Str("name", name).Msg("archiving command output")
		}
	}
	return e, err
}

// lockedBuffer collects stdout and stderr, which exec copies from separate
// goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Reader() io.Reader {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.NewReader(b.buf.Bytes())
}

// newSink builds the report sink from configuration. The returned func
// closes whatever clients were opened.
func newSink(ctx context.Context) (*report.Sink, func(), error) {
	opts := []report.SinkOption{report.WithLogger(logger)}
	var closers []func() error

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn().Err(err).Msg("closing client")
			}
		}
	}

	if topic := viper.GetString("time.topic"); topic != "" {
		project := viper.GetString("time.project")
		if project == "" {
			return nil, closeAll, errors.New("--project is required with --topic")
		}
		ps, err := simpler.NewPubSubClient(ctx, project)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, ps.Close)
		opts = append(opts, report.WithPublisher(ps, topic))
	}

	if bucket := viper.GetString("time.bucket"); bucket != "" {
		st, err := simpler.NewStorageClient(ctx)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, st.Close)
		opts = append(opts, report.WithArchiver(st, bucket, viper.GetString("time.prefix")))
	}

	return report.NewSink(opts...), closeAll, nil
}
