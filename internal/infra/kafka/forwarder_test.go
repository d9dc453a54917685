package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vietddude/inventorybot/internal/core/domain"
)

type mockWriter struct {
	mu       sync.Mutex
	msgs     []kafka.Message
	err      error
	deadline bool
	closed   bool
}

func (w *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, w.deadline = ctx.Deadline()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

func TestForwarder_Append(t *testing.T) {
	w := &mockWriter{}
	f := NewForwarderWithWriter(w, time.Second)

	entry := domain.DeadLetterEntry{ID: "abc", WorkerID: 1, BatchID: "1-42", Reason: domain.ReasonRetriesExhausted, Retries: 3}
	if err := f.Append(context.Background(), entry); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "1-42" {
		t.Errorf("expected key 1-42, got %s", msg.Key)
	}

	var got domain.DeadLetterEntry
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if got.BatchID != "1-42" || got.Retries != 3 {
		t.Errorf("unexpected payload: %+v", got)
	}
	if !w.deadline {
		t.Error("expected write to be bounded by a deadline")
	}
}

func TestForwarder_AppendError(t *testing.T) {
	w := &mockWriter{err: errors.New("broker down")}
	f := NewForwarderWithWriter(w, 0)

	err := f.Append(context.Background(), domain.DeadLetterEntry{BatchID: "0-1"})
	if err == nil || !errors.Is(err, w.err) {
		t.Errorf("expected wrapped broker error, got %v", err)
	}
}

func TestNewForwarder_Validation(t *testing.T) {
	if _, err := NewForwarder(Config{Topic: "dl"}); err == nil {
		t.Error("expected error without brokers")
	}
	if _, err := NewForwarder(Config{Brokers: []string{"localhost:9092"}}); err == nil {
		t.Error("expected error without topic")
	}
}

func TestForwarder_Close(t *testing.T) {
	w := &mockWriter{}
	if err := NewForwarderWithWriter(w, 0).Close(); err != nil || !w.closed {
		t.Errorf("expected writer closed, err=%v", err)
	}
}
