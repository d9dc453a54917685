// Package kafka forwards dead letters to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vietddude/inventorybot/internal/core/domain"
	"github.com/vietddude/inventorybot/internal/infra/storage"
)

// Config holds Kafka producer settings.
type Config struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// MessageWriter is the subset of *kafka.Writer used by the forwarder.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Forwarder publishes every dead letter as a JSON message keyed by batch id.
type Forwarder struct {
	writer  MessageWriter
	timeout time.Duration
}

var _ storage.DeadLetterSink = (*Forwarder)(nil)

// NewWriter creates a producer for the dead-letter topic.
func NewWriter(cfg Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

// NewForwarder creates a forwarder. Writes are bounded by cfg.WriteTimeout.
func NewForwarder(cfg Config) (*Forwarder, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	return NewForwarderWithWriter(NewWriter(cfg), cfg.WriteTimeout), nil
}

// NewForwarderWithWriter wraps an existing writer.
func NewForwarderWithWriter(w MessageWriter, timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Forwarder{writer: w, timeout: timeout}
}

// Append publishes entry. Messages with the same batch id land on one partition.
func (f *Forwarder) Append(ctx context.Context, entry domain.DeadLetterEntry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(entry.BatchID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "reason", Value: []byte(entry.Reason)},
		},
	}
	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish dead letter %s: %w", entry.BatchID, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (f *Forwarder) Close() error {
	return f.writer.Close()
}
