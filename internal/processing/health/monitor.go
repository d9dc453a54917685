package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/inventorybot/internal/processing/worker"
)

// ProgressSource reports worker pool activity.
type ProgressSource interface {
	Progress() worker.Progress
}

// DeadLetterCounter counts dead letters per worker.
type DeadLetterCounter interface {
	Count(ctx context.Context, workerID int) (int, error)
}

// Monitor aggregates health status from the worker pool and dead-letter store.
type Monitor struct {
	progress          ProgressSource
	deadLetters       DeadLetterCounter
	criticalThreshold int
	cacheTTL          time.Duration
	now               func() time.Time
	lastCheck         time.Time
	lastReport        *Report
	mu                sync.Mutex
}

// NewMonitor creates a new health monitor. A worker with more than
// criticalThreshold dead letters is critical; any dead letter is degraded.
func NewMonitor(progress ProgressSource, deadLetters DeadLetterCounter, criticalThreshold int) *Monitor {
	return &Monitor{
		progress:          progress,
		deadLetters:       deadLetters,
		criticalThreshold: criticalThreshold,
		cacheTTL:          5 * time.Second,
		now:               time.Now,
	}
}

// WithCacheTTL overrides how long a report is reused.
func (m *Monitor) WithCacheTTL(ttl time.Duration) *Monitor {
	m.cacheTTL = ttl
	return m
}

// CheckHealth builds a health report, reusing a recent one when available.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && m.now().Sub(m.lastCheck) < m.cacheTTL {
		return *m.lastReport
	}

	progress := m.progress.Progress()
	report := Report{
		SystemStatus:  StatusHealthy,
		ActiveWorkers: progress.Active,
		Processed:     progress.Processed,
		Workers:       make([]WorkerHealth, 0, len(progress.PerWorker)),
	}

	for workerID, processed := range progress.PerWorker {
		health := WorkerHealth{
			WorkerID:  workerID,
			Status:    StatusHealthy,
			Processed: processed,
		}

		if m.deadLetters != nil {
			count, err := m.deadLetters.Count(ctx, workerID)
			if err != nil {
				// Store unreachable
				health.Status = StatusDegraded
			} else {
				health.DeadLetters = count
			}
		}

		if m.criticalThreshold > 0 && health.DeadLetters > m.criticalThreshold {
			health.Status = StatusCritical
		} else if health.DeadLetters > 0 {
			health.Status = worst(health.Status, StatusDegraded)
		}

		report.SystemStatus = worst(report.SystemStatus, health.Status)
		report.Workers = append(report.Workers, health)
	}

	m.lastCheck = m.now()
	m.lastReport = &report
	return report
}
