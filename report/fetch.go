package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrom-in-space/yootils/simpler"
)

// Downloader reads archived documents back from a bucket.
type Downloader interface {
	DownloadJSONSchematized(ctx context.Context, bucket, name string, object simpler.SchemaProvider) error
	DownloadFile(ctx context.Context, bucket, name string) ([]byte, error)
}

// Fetch downloads the report archived as bucket/name. The stored schema
// reference must match the Execution schema and the decoded report must be
// valid.
func Fetch(ctx context.Context, d Downloader, bucket, name string) (Execution, error) {
	var e Execution
	if err := d.DownloadJSONSchematized(ctx, bucket, name, &e); err != nil {
		return Execution{}, fmt.Errorf("fetching execution report gs://%s/%s: %w", bucket, name, err)
	}
	if err := e.Validate(); err != nil {
		return Execution{}, err
	}
	return e, nil
}

// FetchOutput downloads the output archived next to the report bucket/name.
func FetchOutput(ctx context.Context, d Downloader, bucket, name string) ([]byte, error) {
	name = OutputObjectNameFor(name)
	data, err := d.DownloadFile(ctx, bucket, name)
	if err != nil {
		return nil, fmt.Errorf("fetching execution output gs://%s/%s: %w", bucket, name, err)
	}
	return data, nil
}

// OutputObjectNameFor maps a report object name to its output object name.
func OutputObjectNameFor(reportName string) string {
	return strings.TrimSuffix(reportName, ".json") + ".log"
}
