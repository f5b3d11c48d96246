package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrom-in-space/yootils/report"
	"github.com/hrom-in-space/yootils/simpler"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect archived execution reports",
}

var reportGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print an archived execution report",
	Long: `Downloads an execution report archived by "yootils time --bucket", checks it
against the report schema and prints it as JSON. --bucket defaults to time.bucket.`,
	Args: cobra.NoArgs,
	RunE: runReportGet,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportGetCmd)

	f := reportGetCmd.Flags()
	f.String("bucket", "", "Cloud Storage bucket holding the report")
	f.String("object", "", "object name of the report")
	f.Bool("with-output", false, "include the command output archived next to the report")

	for _, key := range []string{"bucket", "object", "with-output"} {
		_ = viper.BindPFlag("report."+key, f.Lookup(key))
	}
}

type reportOutput struct {
	report.Execution
	Output *string `json:"output,omitempty"`
}

func runReportGet(cmd *cobra.Command, args []string) error {
	bucket := viper.GetString("report.bucket")
	if bucket == "" {
		bucket = viper.GetString("time.bucket")
	}
	object := viper.GetString("report.object")
	if bucket == "" || object == "" {
		return errors.New("--bucket and --object are required")
	}

	st, err := simpler.NewStorageClient(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing client")
		}
	}()

	return getReport(cmd.Context(), st, bucket, object, viper.GetBool("report.with-output"), cmd.OutOrStdout())
}

// getReport fetches bucket/object and writes it to w as indented JSON.
func getReport(ctx context.Context, d report.Downloader, bucket, object string, withOutput bool, w io.Writer) error {
	e, err := report.Fetch(ctx, d, bucket, object)
	if err != nil {
		return err
	}

	out := reportOutput{Execution: e}
	if withOutput {
		data, err := report.FetchOutput(ctx, d, bucket, object)
		if err != nil {
			return err
		}
		s := string(data)
		out.Output = &s
	}
	logger.Debug().Str("name", e.Name).Str("object", object).Msg("execution report fetched")

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
