package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/inventorybot/internal/infra/storage"
)

// Pruner deletes persisted dead letters past their retention period.
type Pruner struct {
	retention time.Duration
	repo      storage.DeadLetterPruner
	now       func() time.Time
	log       *slog.Logger
}

// NewPruner creates a new Pruner worker. A retention of 0 disables pruning.
func NewPruner(retention time.Duration, repo storage.DeadLetterPruner) *Pruner {
	return &Pruner{
		retention: retention,
		repo:      repo,
		now:       time.Now,
		log:       slog.Default().With("component", "pruner"),
	}
}

// Interval is how often the pruner runs: 10% of retention, clamped to [1m, 1h].
func (p *Pruner) Interval() time.Duration {
	interval := min(p.retention/10, 1*time.Hour)
	return max(interval, 1*time.Minute)
}

// Start runs the pruner loop until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	// Initial prune
	p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune deletes entries older than the retention period once.
func (p *Pruner) Prune(ctx context.Context) int64 {
	threshold := p.now().Add(-p.retention)

	removed, err := p.repo.DeleteOlderThan(ctx, threshold)
	if err != nil {
		p.log.Error("Failed to prune dead letters", "threshold", threshold, "error", err)
		return 0
	}
	if removed > 0 {
		p.log.Info("Pruned dead letters", "removed", removed, "threshold", threshold)
	}
	return removed
}
