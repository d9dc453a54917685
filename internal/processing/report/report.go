// Package report records batch transitions as log events, metrics and dead letters.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/inventorybot/internal/core/domain"
	"github.com/vietddude/inventorybot/internal/infra/storage"
	"github.com/vietddude/inventorybot/internal/processing/metrics"
)

// Reporter receives every transition of the retry state machine.
// Implementations must not panic or block the caller on side-effect failures.
type Reporter interface {
	// Success reports a terminal successful attempt
	Success(ctx context.Context, id domain.BatchID, attempt domain.Attempt)

	// Retry reports an intermediate retryable failure
	Retry(ctx context.Context, id domain.BatchID, retry int, err error)

	// Failure reports a terminal non-retryable failure
	Failure(ctx context.Context, id domain.BatchID, err error)

	// DeadLetter reports retry exhaustion and appends to the sink
	DeadLetter(ctx context.Context, entry domain.DeadLetterEntry)
}

// OutcomeReporter is the default Reporter.
type OutcomeReporter struct {
	events  *slog.Logger
	metrics *metrics.Metrics
	sink    storage.DeadLetterSink
	diag    *slog.Logger
}

var _ Reporter = (*OutcomeReporter)(nil)

// New creates a reporter. sink may be nil when no dead letters are kept.
func New(events *slog.Logger, m *metrics.Metrics, sink storage.DeadLetterSink) *OutcomeReporter {
	return &OutcomeReporter{
		events:  events,
		metrics: m,
		sink:    sink,
		diag:    slog.Default().With("component", "reporter"),
	}
}

// WithSink returns a reporter sharing events and metrics but appending to sink.
// Reporters hold no lock of their own; the event handler, the metrics and each
// sink are safe for concurrent use, so a slow sink only blocks its own worker.
func (r *OutcomeReporter) WithSink(sink storage.DeadLetterSink) *OutcomeReporter {
	clone := *r
	clone.sink = sink
	return &clone
}

// WithDiagnostics sets the logger used for reporter-side faults.
func (r *OutcomeReporter) WithDiagnostics(log *slog.Logger) *OutcomeReporter {
	r.diag = log
	return r
}

func (r *OutcomeReporter) Success(ctx context.Context, id domain.BatchID, attempt domain.Attempt) {
	r.emit(ctx, id, slog.LevelInfo,
		slog.Float64("duration", attempt.Duration.Seconds()),
		slog.String("outcome", domain.OutcomeSuccess.EventLabel()),
	)
	r.metrics.RecordOutcome(domain.OutcomeSuccess)
	r.metrics.ObserveSuccess(attempt.Duration)
}

func (r *OutcomeReporter) Retry(ctx context.Context, id domain.BatchID, retry int, err error) {
	r.emit(ctx, id, slog.LevelWarn,
		slog.String("error", errString(err)),
		slog.String("outcome", domain.OutcomeRetryable.EventLabel()),
		slog.Int("retry", retry),
	)
	r.metrics.RetriesTotal.Inc()
}

func (r *OutcomeReporter) Failure(ctx context.Context, id domain.BatchID, err error) {
	r.emit(ctx, id, slog.LevelError,
		slog.String("error", errString(err)),
		slog.String("outcome", domain.OutcomeNonRetryable.EventLabel()),
	)
	r.metrics.RecordOutcome(domain.OutcomeNonRetryable)
}

func (r *OutcomeReporter) DeadLetter(ctx context.Context, entry domain.DeadLetterEntry) {
	r.emit(ctx, entry.BatchID, slog.LevelError,
		slog.String("outcome", domain.OutcomeDeadLettered.EventLabel()),
	)
	r.metrics.RecordOutcome(domain.OutcomeDeadLettered)

	if r.sink == nil {
		return
	}
	r.isolate("dead-letter append", entry.BatchID, func() error {
		return r.sink.Append(ctx, entry)
	})
}

func (r *OutcomeReporter) emit(ctx context.Context, id domain.BatchID, level slog.Level, attrs ...slog.Attr) {
	if r.events == nil {
		return
	}
	attrs = append([]slog.Attr{slog.String("batch_id", id.String())}, attrs...)
	r.isolate("event log", id, func() error {
		// Logger methods drop handler errors, so write through the handler.
		h := r.events.Handler()
		if !h.Enabled(ctx, level) {
			return nil
		}
		rec := slog.NewRecord(time.Now(), level, "", 0)
		rec.AddAttrs(attrs...)
		return h.Handle(ctx, rec)
	})
}

// isolate runs a side effect; errors and panics are logged, never propagated.
func (r *OutcomeReporter) isolate(what string, id domain.BatchID, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			r.fault(what, id, fmt.Errorf("panic: %v", p))
		}
	}()
	if err := fn(); err != nil {
		r.fault(what, id, err)
	}
}

func (r *OutcomeReporter) fault(what string, id domain.BatchID, err error) {
	r.metrics.SinkErrorsTotal.Inc()
	if r.diag != nil {
		r.diag.Warn("Reporter side effect failed", "effect", what, "batch_id", id, "error", err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
