package simpler

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// PubSubClient handles Google Cloud Pub/Sub operations.
type PubSubClient struct {
	client *pubsub.Client
}

// NewPubSubClient creates a new PubSubClient for projectID.
func NewPubSubClient(ctx context.Context, projectID string, opts ...option.ClientOption) (*PubSubClient, error) {
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubClient{
		client: client,
	}, nil
}

// PublishMessage publishes object as a JSON message to topicID and waits for
// the server to acknowledge it. Objects that carry an Avro schema are
// validated first and tagged with a schema_ref attribute.
func (c *PubSubClient) PublishMessage(ctx context.Context, topicID string, object any) error {
	msg, err := newMessage(object)
	if err != nil {
		return err
	}

	topic := c.client.Topic(topicID)
	defer topic.Stop()

	// Wait for the publish to complete
	if _, err := topic.Publish(ctx, msg).Get(ctx); err != nil {
		return fmt.Errorf("publishing message to topic %s: %w", topicID, err)
	}

	return nil
}

// Close releases the underlying client.
func (c *PubSubClient) Close() error {
	return c.client.Close()
}

func newMessage(object any) (*pubsub.Message, error) {
	msg := &pubsub.Message{}

	if sp, ok := object.(SchemaProvider); ok {
		ref, err := SchemaRef(sp)
		if err != nil {
			return nil, err
		}
		if err := Validate(sp); err != nil {
			return nil, err
		}
		msg.Attributes = map[string]string{SchemaRefKey: ref}
	}

	data, err := json.Marshal(object)
	if err != nil {
		return nil, fmt.Errorf("marshaling message: %w", err)
	}
	msg.Data = data

	return msg, nil
}
