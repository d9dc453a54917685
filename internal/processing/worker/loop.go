// Package worker drives batch sequences through the retry controller.
package worker

import (
	"context"
	"log/slog"

	"github.com/vietddude/inventorybot/internal/core/domain"
	"github.com/vietddude/inventorybot/internal/processing/retry"
)

// BatchRunner drives one batch to a terminal state.
type BatchRunner interface {
	Run(ctx context.Context, id domain.BatchID) retry.Result
}

// Summary is the per-worker account of a finished run.
type Summary struct {
	WorkerID    int
	Processed   int
	ByOutcome   map[domain.Outcome]int
	DeadLetters []domain.BatchID
}

// Loop processes batches {WorkerID}-{seq} sequentially.
type Loop struct {
	WorkerID int

	// MaxBatches bounds the run; 0 or less runs until ctx is done
	MaxBatches int

	Controller BatchRunner

	// OnResult is called after each terminal result, if set
	OnResult func(retry.Result)

	Log *slog.Logger
}

// Run processes batches until the bound is reached or ctx is cancelled.
// Cancellation is checked between batches; an in-flight batch always completes
// with a context that keeps ctx's values but is never cancelled.
func (l *Loop) Run(ctx context.Context) Summary {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "worker", "worker_id", l.WorkerID)

	summary := Summary{
		WorkerID:  l.WorkerID,
		ByOutcome: make(map[domain.Outcome]int),
	}

	log.Info("Worker started", "max_batches", l.MaxBatches)

	batchCtx := context.WithoutCancel(ctx)

	for seq := 0; l.MaxBatches <= 0 || seq < l.MaxBatches; seq++ {
		if err := ctx.Err(); err != nil {
			log.Info("Worker stopping", "processed", summary.Processed, "reason", err)
			return summary
		}

		res := l.Controller.Run(batchCtx, domain.NewBatchID(l.WorkerID, seq))

		summary.Processed++
		summary.ByOutcome[res.Outcome]++
		if res.Outcome == domain.OutcomeDeadLettered {
			summary.DeadLetters = append(summary.DeadLetters, res.BatchID)
		}
		if l.OnResult != nil {
			l.OnResult(res)
		}
	}

	log.Info("Worker finished",
		"processed", summary.Processed,
		"success", summary.ByOutcome[domain.OutcomeSuccess],
		"api_error", summary.ByOutcome[domain.OutcomeNonRetryable],
		"dead_letter", summary.ByOutcome[domain.OutcomeDeadLettered],
	)
	return summary
}
