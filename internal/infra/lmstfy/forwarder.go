// Package lmstfy forwards dead letters to an lmstfy queue for later replay.
package lmstfy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bitleak/lmstfy/client"

	"github.com/vietddude/inventorybot/internal/core/domain"
	"github.com/vietddude/inventorybot/internal/infra/storage"
)

// Config holds lmstfy connection settings.
type Config struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Namespace string `yaml:"namespace"`
	Token     string `yaml:"token"`
	Queue     string `yaml:"queue"`

	// TTL is the job lifetime in seconds; 0 keeps jobs forever
	TTL uint32 `yaml:"ttl"`

	// Tries is how many times a consumer may receive the job
	Tries uint16 `yaml:"tries"`
}

// Publisher is the subset of the lmstfy client used by the forwarder.
type Publisher interface {
	Publish(queue string, data []byte, ttlSecond uint32, tries uint16, delaySecond uint32) (string, error)
}

// Forwarder publishes every dead letter as a job.
type Forwarder struct {
	pub   Publisher
	queue string
	ttl   uint32
	tries uint16
}

var _ storage.DeadLetterSink = (*Forwarder)(nil)

// NewForwarder creates a forwarder backed by an lmstfy client.
func NewForwarder(cfg Config) (*Forwarder, error) {
	if cfg.Host == "" || cfg.Queue == "" {
		return nil, fmt.Errorf("lmstfy host and queue are required")
	}
	cli := client.NewLmstfyClient(cfg.Host, cfg.Port, cfg.Namespace, cfg.Token)
	return NewForwarderWithPublisher(cli, cfg), nil
}

// NewForwarderWithPublisher wraps an existing publisher.
func NewForwarderWithPublisher(pub Publisher, cfg Config) *Forwarder {
	tries := cfg.Tries
	if tries == 0 {
		tries = 3
	}
	return &Forwarder{pub: pub, queue: cfg.Queue, ttl: cfg.TTL, tries: tries}
}

// Append publishes entry with no delay.
func (f *Forwarder) Append(ctx context.Context, entry domain.DeadLetterEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	if _, err := f.pub.Publish(f.queue, data, f.ttl, f.tries, 0); err != nil {
		return fmt.Errorf("lmstfy publish failed: %w", err)
	}
	return nil
}
