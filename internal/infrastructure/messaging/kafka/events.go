package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Topic Constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	TopicSceneBuilt     = "molscope.scene.built"
	TopicRecordRejected = "molscope.record.rejected"

	EventTypeSceneBuilt     = "scene.built"
	EventTypeRecordRejected = "record.rejected"

	eventSource   = "molscope"
	schemaVersion = "v1"
)

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	RequestID     string            `json:"request_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// SceneBuiltPayload is emitted after a scene is produced, cached or not.
type SceneBuiltPayload struct {
	Digest        string  `json:"digest"`
	Name          string  `json:"name"`
	Formula       string  `json:"formula"`
	AtomCount     int     `json:"atom_count"`
	BondCount     int     `json:"bond_count"`
	SphereCount   int     `json:"sphere_count"`
	CylinderCount int     `json:"cylinder_count"`
	DurationMs    float64 `json:"duration_ms"`
	Cached        bool    `json:"cached"`
	SessionID     string  `json:"session_id,omitempty"`
}

// RecordRejectedPayload is emitted when a record fails to parse.
type RecordRejectedPayload struct {
	Digest    string `json:"digest"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
	Detail    string `json:"detail,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

func NewEventEnvelope(eventType string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        eventSource,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: schemaVersion,
		Payload:       data,
	}, nil
}

func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeSerialization, "empty payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal payload")
	}
	return nil
}

// ToMessage encodes the envelope keyed by key (the record digest, so all
// events for one record land on one partition).
func (e *EventEnvelope) ToMessage(topic string, key string) (*ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	headers := map[string]string{
		"event_type":     e.EventType,
		"source_service": e.Source,
		"schema_version": e.SchemaVersion,
	}
	if e.RequestID != "" {
		headers["request_id"] = e.RequestID
	}
	return &ProducerMessage{
		Topic:     topic,
		Key:       []byte(key),
		Value:     val,
		Headers:   headers,
		Timestamp: e.Timestamp,
	}, nil
}

// DecodeEnvelope parses a message value produced by ToMessage.
func DecodeEnvelope(value []byte) (*EventEnvelope, error) {
	if len(value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scene event publisher
// ─────────────────────────────────────────────────────────────────────────────

// Publisher is the sink the viewer service reports to.
type Publisher interface {
	SceneBuilt(ctx context.Context, p SceneBuiltPayload) error
	RecordRejected(ctx context.Context, p RecordRejectedPayload) error
}

// Sender is satisfied by *Producer.
type Sender interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
	PublishAsync(ctx context.Context, msg *ProducerMessage)
}

// SceneEventPublisher maps scene events onto topics.
type SceneEventPublisher struct {
	sender      Sender
	sceneTopic  string
	rejectTopic string
	async       bool
	logger      logging.Logger
}

// NewSceneEventPublisher publishes to the given topics; empty names take the
// defaults. With async set, publish calls return immediately.
func NewSceneEventPublisher(sender Sender, sceneTopic, rejectTopic string, async bool, logger logging.Logger) *SceneEventPublisher {
	if sceneTopic == "" {
		sceneTopic = TopicSceneBuilt
	}
	if rejectTopic == "" {
		rejectTopic = TopicRecordRejected
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SceneEventPublisher{sender: sender, sceneTopic: sceneTopic, rejectTopic: rejectTopic, async: async, logger: logger}
}

func (s *SceneEventPublisher) SceneBuilt(ctx context.Context, p SceneBuiltPayload) error {
	return s.send(ctx, s.sceneTopic, EventTypeSceneBuilt, p.Digest, p)
}

func (s *SceneEventPublisher) RecordRejected(ctx context.Context, p RecordRejectedPayload) error {
	return s.send(ctx, s.rejectTopic, EventTypeRecordRejected, p.Digest, p)
}

func (s *SceneEventPublisher) send(ctx context.Context, topic, eventType, key string, payload interface{}) error {
	env, err := NewEventEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	env.RequestID = logging.RequestIDFromContext(ctx)
	msg, err := env.ToMessage(topic, key)
	if err != nil {
		return err
	}
	if s.async {
		s.sender.PublishAsync(ctx, msg)
		return nil
	}
	return s.sender.Publish(ctx, msg)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) SceneBuilt(context.Context, SceneBuiltPayload) error         { return nil }
func (NopPublisher) RecordRejected(context.Context, RecordRejectedPayload) error { return nil }

//Personal.AI order the ending
