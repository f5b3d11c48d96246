// Package simpler provides thin Cloud Storage and Pub/Sub clients used to ship
// JSON documents that carry their own Avro schema.
package simpler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/hamba/avro/v2"
	"google.golang.org/api/option"
)

// SchemaRefKey is the object metadata key and message attribute holding the
// full name of a document's Avro schema.
const SchemaRefKey = "schema_ref"

type StorageClient interface {
	// UploadFile uploads a file to the specified bucket.
	UploadFile(ctx context.Context, bucket string, name string, content io.Reader) error

	// UploadJSONSchematized uploads a JSON-serializable object to the specified bucket.
	// It validates the object against its Avro schema before upload and stores the schema
	// reference in the object's metadata for later validation during download.
	UploadJSONSchematized(ctx context.Context, bucket string, name string, object SchemaProvider) error

	// DownloadFile downloads a file from the specified bucket and returns its contents as bytes.
	DownloadFile(ctx context.Context, bucket, name string) ([]byte, error)

	// DownloadJSONSchematized downloads a JSON-serializable object from the specified bucket.
	// It validates that the stored schema reference matches the expected schema and
	// validates the downloaded object against the schema after unmarshaling.
	DownloadJSONSchematized(ctx context.Context, bucket, name string, object SchemaProvider) error

	// Close releases the underlying client.
	Close() error
}

type storageClient struct {
	client *storage.Client
}

var _ StorageClient = (*storageClient)(nil)

// NewStorageClient creates a new StorageClient. Without options it uses
// Application Default Credentials.
func NewStorageClient(ctx context.Context, opts ...option.ClientOption) (StorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &storageClient{
		client: client,
	}, nil
}

// SchemaProvider is implemented by documents that know their Avro schema.
// The schema must be a named schema; its full name is the schema reference.
type SchemaProvider interface {
	Schema() avro.Schema
}

// SchemaRef returns the full name of the object's schema.
func SchemaRef(object SchemaProvider) (string, error) {
	ns, ok := object.Schema().(avro.NamedSchema)
	if !ok {
		return "", fmt.Errorf("schema of %T is not a named schema", object)
	}
	return ns.FullName(), nil
}

// Validate encodes object against its own schema and discards the output.
func Validate(object SchemaProvider) error {
	if err := avro.NewEncoderForSchema(object.Schema(), io.Discard).Encode(object); err != nil {
		return fmt.Errorf("validating object against schema: %w", err)
	}
	return nil
}

// upload writes the provided content to the specified GCS object in bucket/name.
// If contentType is non-empty, it is set on the object. If metadata is non-nil,
// its key-value pairs are attached as user-defined object metadata.
func (c *storageClient) upload(ctx context.Context, bucket, name string, content io.Reader, contentType string, metadata map[string]string) error {
	wc := c.client.Bucket(bucket).Object(name).NewWriter(ctx)

	if contentType != "" {
		wc.ContentType = contentType
	}
	if metadata != nil {
		wc.Metadata = metadata
	}

	if _, err := io.Copy(wc, content); err != nil {
		_ = wc.Close()
		return fmt.Errorf("copying content to gs://%s/%s: %w", bucket, name, err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("closing bucket writer: %w", err)
	}

	return nil
}

// UploadJSONSchematized validates object against its Avro schema, uploads it
// as JSON and records the schema reference in the object metadata.
func (c *storageClient) UploadJSONSchematized(ctx context.Context, bucket string, name string, object SchemaProvider) error {
	ref, err := SchemaRef(object)
	if err != nil {
		return err
	}
	if err := Validate(object); err != nil {
		return err
	}

	data, err := json.Marshal(object)
	if err != nil {
		return fmt.Errorf("marshaling object: %w", err)
	}

	return c.upload(ctx, bucket, name, bytes.NewReader(data), "application/json", map[string]string{
		SchemaRefKey: ref,
	})
}

// UploadFile uploads a file to the specified bucket.
func (c *storageClient) UploadFile(ctx context.Context, bucket string, name string, content io.Reader) error {
	return c.upload(ctx, bucket, name, content, "", nil)
}

func (c *storageClient) readObject(ctx context.Context, obj *storage.ObjectHandle) ([]byte, error) {
	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// DownloadFile downloads a file from the specified bucket and returns its contents as bytes.
func (c *storageClient) DownloadFile(ctx context.Context, bucket, name string) ([]byte, error) {
	return c.readObject(ctx, c.client.Bucket(bucket).Object(name))
}

// DownloadJSONSchematized downloads a JSON document into object after checking
// that its stored schema reference matches, then validates the result.
func (c *storageClient) DownloadJSONSchematized(ctx context.Context, bucket, name string, object SchemaProvider) error {
	want, err := SchemaRef(object)
	if err != nil {
		return err
	}

	obj := c.client.Bucket(bucket).Object(name)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return fmt.Errorf("getting attrs: %w", err)
	}

	if err := checkSchemaRef(attrs.Metadata, want); err != nil {
		return err
	}

	data, err := c.readObject(ctx, obj)
	if err != nil {
		return err
	}

	return decodeSchematized(data, object)
}

func (c *storageClient) Close() error {
	return c.client.Close()
}

func checkSchemaRef(metadata map[string]string, want string) error {
	if have := metadata[SchemaRefKey]; have != want {
		return fmt.Errorf("schema mismatch or missing schema_ref: have=%q want=%q", have, want)
	}
	return nil
}

// decodeSchematized unmarshals JSON into object and validates the result.
func decodeSchematized(data []byte, object SchemaProvider) error {
	if err := json.Unmarshal(data, object); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	if err := Validate(object); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}
