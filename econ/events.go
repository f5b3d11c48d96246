// Package econ decodes CloudEvents that wrap Google Cloud Pub/Sub messages,
// such as the execution reports published by the report package.
package econ

import (
	"encoding/json"
	"fmt"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/hrom-in-space/yootils/report"
	"github.com/hrom-in-space/yootils/simpler"
)

// MessagePublishedType is the CloudEvent type Eventarc uses for Pub/Sub deliveries.
const MessagePublishedType = "google.cloud.pubsub.topic.v1.messagePublished"

// PubsubMessage represents the inner Pub/Sub message payload as defined by
// google.events.cloud.pubsub.v1.PubsubMessage (fields included here are
// limited to what we currently need for decoding business payloads).
// When unmarshaled from JSON, Data is automatically base64-decoded.
type PubsubMessage struct {
	Attributes map[string]string `json:"attributes,omitempty"`
	Data       []byte            `json:"data"`
	MessageID  string            `json:"messageId,omitempty"`
}

// MessagePublishedData is the CloudEvent data wrapper defined by
// google.events.cloud.pubsub.v1.MessagePublishedData, containing the
// published PubsubMessage. Only the `message` field is modeled here.
type MessagePublishedData struct {
	Message PubsubMessage `json:"message"`
}

// EventToStruct extracts the Pub/Sub message from a CloudEvent and
// unmarshals its JSON data into v.
func EventToStruct(e event.Event, v any) error {
	msg, err := messageOf(e)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return nil
}

// ExecutionFromEvent decodes and validates an execution report delivered
// through a Pub/Sub CloudEvent. A schema_ref attribute, when present, must
// name the report schema.
func ExecutionFromEvent(e event.Event) (report.Execution, error) {
	var exec report.Execution

	msg, err := messageOf(e)
	if err != nil {
		return exec, err
	}

	if ref, ok := msg.Attributes[simpler.SchemaRefKey]; ok {
		want, err := simpler.SchemaRef(exec)
		if err != nil {
			return exec, err
		}
		if ref != want {
			return exec, fmt.Errorf("unexpected schema_ref %q, want %q", ref, want)
		}
	}

	if err := json.Unmarshal(msg.Data, &exec); err != nil {
		return exec, fmt.Errorf("failed to unmarshal execution report: %w", err)
	}
	if err := exec.Validate(); err != nil {
		return exec, err
	}

	return exec, nil
}

func messageOf(e event.Event) (PubsubMessage, error) {
	var msg MessagePublishedData
	if err := e.DataAs(&msg); err != nil {
		return PubsubMessage{}, fmt.Errorf("failed to parse pubsub message wrapper: %w", err)
	}
	return msg.Message, nil
}
