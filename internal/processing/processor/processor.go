// Package processor runs the downstream operation for a single batch.
package processor

import (
	"context"
	"time"

	"github.com/vietddude/inventorybot/internal/core/domain"
)

// Operation is the fallible downstream call for one batch.
// Failures are reported through tagged errors (see domain.FailureError).
type Operation func(ctx context.Context, id domain.BatchID) error

// BatchProcessor performs the downstream operation and reports its duration.
type BatchProcessor interface {
	Process(ctx context.Context, id domain.BatchID) (time.Duration, error)
}

// Processor times an Operation.
type Processor struct {
	op  Operation
	now func() time.Time
}

// New creates a processor around op.
func New(op Operation) *Processor {
	return &Processor{op: op, now: time.Now}
}

// WithClock overrides the clock used to measure duration.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Process runs the operation once. Duration is reported on failure too.
// Panics raised by the operation are not recovered.
func (p *Processor) Process(ctx context.Context, id domain.BatchID) (time.Duration, error) {
	start := p.now()
	err := p.op(ctx, id)
	return p.now().Sub(start), err
}
