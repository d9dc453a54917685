package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/inventorybot/internal/core/domain"
)

var (
	// ErrSinkClosed is returned when appending to a closed sink
	ErrSinkClosed = errors.New("dead-letter sink closed")
)

// DeadLetterSink receives batches that exhausted their retry budget.
// Append must be safe for concurrent use.
type DeadLetterSink interface {
	// Append records a dead-lettered batch
	Append(ctx context.Context, entry domain.DeadLetterEntry) error
}

// DeadLetterRepository is a sink whose entries can be read back.
type DeadLetterRepository interface {
	DeadLetterSink

	// List returns the entries for a worker in append order
	List(ctx context.Context, workerID int) ([]domain.DeadLetterEntry, error)

	// Count returns the number of entries for a worker
	Count(ctx context.Context, workerID int) (int, error)
}

// DeadLetterPruner is implemented by repositories that support retention.
type DeadLetterPruner interface {
	// DeleteOlderThan removes entries created before threshold
	DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error)
}

// SinkFactory returns the sink a worker appends to.
type SinkFactory func(workerID int) DeadLetterSink

// SharedSink returns a factory handing the same sink to every worker.
func SharedSink(sink DeadLetterSink) SinkFactory {
	return func(int) DeadLetterSink { return sink }
}

// MultiSink appends to every sink in order. All sinks are attempted; errors are joined.
type MultiSink []DeadLetterSink

func (m MultiSink) Append(ctx context.Context, entry domain.DeadLetterEntry) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
