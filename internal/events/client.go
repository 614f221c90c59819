// Package events publishes document lifecycle events to NATS JetStream and
// backs the entity-extraction cache with a JetStream key-value bucket.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/revlogica/orchestrator/internal/config"
	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
	"github.com/revlogica/orchestrator/internal/logfields"
	"github.com/revlogica/orchestrator/internal/metrics"
	"github.com/revlogica/orchestrator/internal/nlp"
)

const (
	publishTimeout = 5 * time.Second
	kvTimeout      = 2 * time.Second
	initTimeout    = 10 * time.Second
)

// DocumentEvent is the payload published for every successful mutation.
type DocumentEvent struct {
	Action     string    `json:"action"`
	Collection string    `json:"collection"`
	Document   string    `json:"document_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// Client manages the NATS connection, the event stream subject, and the
// extraction cache bucket.
type Client struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	kv       jetstream.KeyValue
	subject  string
	kvBucket string
	recorder metrics.Recorder
}

// Connect establishes the NATS connection and ensures the KV bucket exists.
func Connect(cfg config.EventsConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ferrors.ConfigError("events are disabled").Build()
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, ferrors.EventsError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", cfg.NATSURL).
			Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, ferrors.EventsError("failed to create JetStream context").WithCause(err).Build()
	}

	client := &Client{
		conn:     conn,
		js:       js,
		subject:  cfg.Subject,
		kvBucket: cfg.KVBucket,
		recorder: metrics.NoopRecorder{},
	}

	if err := client.initKVBucket(); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("NATS client initialized",
		logfields.URL(cfg.NATSURL),
		logfields.Subject(cfg.Subject),
		slog.String("kv_bucket", cfg.KVBucket))

	return client, nil
}

// WithRecorder injects a metrics recorder (fluent helper).
func (c *Client) WithRecorder(r metrics.Recorder) *Client {
	if r != nil {
		c.recorder = r
	}
	return c
}

// initKVBucket opens the extraction cache bucket, creating it when absent.
func (c *Client) initKVBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	kv, err := c.js.KeyValue(ctx, c.kvBucket)
	if err == nil {
		c.kv = kv
		return nil
	}

	kv, err = c.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      c.kvBucket,
		Description: "Entity extraction cache for the manuscript orchestrator",
		MaxBytes:    100 * 1024 * 1024,
		History:     1,
	})
	if err != nil {
		return ferrors.EventsError("failed to create KV bucket").
			WithCause(err).
			WithContext("bucket", c.kvBucket).
			Build()
	}

	c.kv = kv
	slog.Info("Created extraction cache bucket", slog.String("bucket", c.kvBucket))
	return nil
}

// PublishDocumentEvent publishes a lifecycle event to the configured subject.
func (c *Client) PublishDocumentEvent(ctx context.Context, event DocumentEvent) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return ferrors.InternalError("failed to marshal document event").WithCause(err).Build()
	}

	if _, err := c.js.Publish(ctx, c.subject, data); err != nil {
		return ferrors.EventsError("failed to publish document event").
			WithCause(err).
			WithContext("subject", c.subject).
			Build()
	}

	slog.Debug("Published document event",
		logfields.Action(event.Action),
		logfields.Collection(event.Collection),
		logfields.Document(event.Document))
	return nil
}

// DocumentChanged implements the manuscript event sink. Event delivery is
// best-effort: a publish failure is logged, never surfaced to the caller.
func (c *Client) DocumentChanged(ctx context.Context, action, collection, name string) {
	c.recorder.IncDocumentEvent(action)
	err := c.PublishDocumentEvent(ctx, DocumentEvent{
		Action:     action,
		Collection: collection,
		Document:   name,
	})
	if err != nil {
		slog.Warn("Failed to publish document event",
			logfields.Action(action),
			logfields.Collection(collection),
			logfields.Document(name),
			logfields.Error(err))
	}
}

// GetExtraction retrieves a cached extraction by content hash.
func (c *Client) GetExtraction(ctx context.Context, key string) ([]nlp.Entity, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, kvTimeout)
	defer cancel()

	entry, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, ferrors.EventsError("failed to read extraction cache").WithCause(err).Build()
	}

	entities, err := decodeExtraction(entry.Value())
	if err != nil {
		return nil, false, err
	}
	return entities, true, nil
}

// SetExtraction stores an extraction under its content hash.
func (c *Client) SetExtraction(ctx context.Context, key string, entities []nlp.Entity) error {
	ctx, cancel := context.WithTimeout(ctx, kvTimeout)
	defer cancel()

	data, err := encodeExtraction(entities)
	if err != nil {
		return err
	}
	if _, err := c.kv.Put(ctx, key, data); err != nil {
		return ferrors.EventsError("failed to write extraction cache").WithCause(err).Build()
	}
	return nil
}

// Close closes the NATS connection.
func (c *Client) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

func encodeExtraction(entities []nlp.Entity) ([]byte, error) {
	data, err := json.Marshal(entities)
	if err != nil {
		return nil, ferrors.InternalError("failed to marshal extraction cache entry").WithCause(err).Build()
	}
	return data, nil
}

func decodeExtraction(data []byte) ([]nlp.Entity, error) {
	var entities []nlp.Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, ferrors.EventsError("corrupt extraction cache entry").
			WithCause(err).
			WithRetry(ferrors.RetryNever).
			Build()
	}
	return entities, nil
}
