package worker

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/inventorybot/internal/infra/storage"
	"github.com/vietddude/inventorybot/internal/processing/metrics"
	"github.com/vietddude/inventorybot/internal/processing/report"
	"github.com/vietddude/inventorybot/internal/processing/retry"
)

// PoolConfig configures a Pool.
type PoolConfig struct {
	Workers    int
	MaxBatches int

	// Controller is shared; each worker gets a copy bound to its own reporter
	Controller *retry.Controller

	// Reporter is the shared event log and metrics; Sinks supplies per-worker sinks
	Reporter *report.OutcomeReporter
	Sinks    storage.SinkFactory

	Metrics *metrics.Metrics
	Log     *slog.Logger
}

// Progress is a snapshot of pool activity.
type Progress struct {
	Active    int
	Processed int64
	PerWorker []int64
}

// Pool runs N independent worker loops.
type Pool struct {
	cfg       PoolConfig
	log       *slog.Logger
	running   *atomic.Bool
	active    *atomic.Int32
	processed *atomic.Int64
	perWorker []*atomic.Int64
}

// NewPool creates a pool. Workers below 1 is an error.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be >= 1, got %d", cfg.Workers)
	}
	if cfg.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if cfg.Reporter == nil {
		return nil, fmt.Errorf("reporter is required")
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	perWorker := make([]*atomic.Int64, cfg.Workers)
	for i := range perWorker {
		perWorker[i] = atomic.NewInt64(0)
	}

	return &Pool{
		cfg:       cfg,
		log:       cfg.Log.With("component", "pool"),
		running:   atomic.NewBool(false),
		active:    atomic.NewInt32(0),
		processed: atomic.NewInt64(0),
		perWorker: perWorker,
	}, nil
}

// Run starts every worker and waits for all of them. Summaries are in worker order.
// The returned error is ctx.Err() when the run was cut short.
func (p *Pool) Run(ctx context.Context) ([]Summary, error) {
	if !p.running.CAS(false, true) {
		return nil, fmt.Errorf("pool already running")
	}
	defer p.running.Store(false)

	p.log.Info("Starting workers", "workers", p.cfg.Workers, "max_batches", p.cfg.MaxBatches)

	summaries := make([]Summary, p.cfg.Workers)
	g := new(errgroup.Group)

	for w := 0; w < p.cfg.Workers; w++ {
		workerID := w
		loop := p.loop(workerID)

		g.Go(func() error {
			p.active.Inc()
			p.gauge(1)
			defer func() {
				p.active.Dec()
				p.gauge(-1)
			}()

			summaries[workerID] = loop.Run(ctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summaries, err
	}

	p.log.Info("All workers finished", "processed", p.processed.Load())
	return summaries, ctx.Err()
}

// Progress returns a snapshot of worker activity.
func (p *Pool) Progress() Progress {
	per := make([]int64, len(p.perWorker))
	for i, c := range p.perWorker {
		per[i] = c.Load()
	}
	return Progress{
		Active:    int(p.active.Load()),
		Processed: p.processed.Load(),
		PerWorker: per,
	}
}

func (p *Pool) loop(workerID int) *Loop {
	reporter := p.cfg.Reporter
	if p.cfg.Sinks != nil {
		reporter = reporter.WithSink(p.cfg.Sinks(workerID))
	}
	counter := p.perWorker[workerID]

	return &Loop{
		WorkerID:   workerID,
		MaxBatches: p.cfg.MaxBatches,
		Controller: p.cfg.Controller.WithReporter(reporter),
		OnResult: func(retry.Result) {
			counter.Inc()
			p.processed.Inc()
		},
		Log: p.cfg.Log,
	}
}

func (p *Pool) gauge(delta float64) {
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.WorkersActive.Add(delta)
	}
}
