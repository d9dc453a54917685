package memory

import (
	"context"
	"sync"

	"github.com/vietddude/inventorybot/internal/core/domain"
	"github.com/vietddude/inventorybot/internal/infra/storage"
)

// DeadLetterSink is an in-memory, append-only dead-letter queue.
// One instance is normally scoped to a single worker's run.
type DeadLetterSink struct {
	entries []domain.DeadLetterEntry
	mu      sync.RWMutex
}

var _ storage.DeadLetterRepository = (*DeadLetterSink)(nil)

func NewDeadLetterSink() *DeadLetterSink {
	return &DeadLetterSink{}
}

func (s *DeadLetterSink) Append(ctx context.Context, entry domain.DeadLetterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *DeadLetterSink) List(ctx context.Context, workerID int) ([]domain.DeadLetterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.DeadLetterEntry
	for _, e := range s.entries {
		if e.WorkerID == workerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *DeadLetterSink) Count(ctx context.Context, workerID int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if e.WorkerID == workerID {
			n++
		}
	}
	return n, nil
}

// BatchIDs returns every dead-lettered batch id in append order.
func (s *DeadLetterSink) BatchIDs() []domain.BatchID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]domain.BatchID, len(s.entries))
	for i, e := range s.entries {
		ids[i] = e.BatchID
	}
	return ids
}

// -----------------------------------------------------------------------------
// Per-worker registry
// -----------------------------------------------------------------------------

// Registry hands each worker its own sink and keeps them for inspection.
type Registry struct {
	sinks map[int]*DeadLetterSink
	mu    sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{sinks: make(map[int]*DeadLetterSink)}
}

// ForWorker returns the sink for workerID, creating it on first use.
func (r *Registry) ForWorker(workerID int) storage.DeadLetterSink {
	return r.sink(workerID)
}

func (r *Registry) sink(workerID int) *DeadLetterSink {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sinks[workerID]
	if !ok {
		s = NewDeadLetterSink()
		r.sinks[workerID] = s
	}
	return s
}

func (r *Registry) List(ctx context.Context, workerID int) ([]domain.DeadLetterEntry, error) {
	return r.sink(workerID).List(ctx, workerID)
}

func (r *Registry) Count(ctx context.Context, workerID int) (int, error) {
	return r.sink(workerID).Count(ctx, workerID)
}
