// Package control assembles and runs the inventory bot.
package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vietddude/inventorybot/internal/core/config"
	"github.com/vietddude/inventorybot/internal/core/domain"
	coreworker "github.com/vietddude/inventorybot/internal/core/worker"
	"github.com/vietddude/inventorybot/internal/infra/kafka"
	"github.com/vietddude/inventorybot/internal/infra/lmstfy"
	redisclient "github.com/vietddude/inventorybot/internal/infra/redis"
	"github.com/vietddude/inventorybot/internal/infra/storage"
	"github.com/vietddude/inventorybot/internal/infra/storage/memory"
	"github.com/vietddude/inventorybot/internal/infra/storage/postgres"
	"github.com/vietddude/inventorybot/internal/processing/eventlog"
	"github.com/vietddude/inventorybot/internal/processing/health"
	"github.com/vietddude/inventorybot/internal/processing/metrics"
	"github.com/vietddude/inventorybot/internal/processing/processor"
	"github.com/vietddude/inventorybot/internal/processing/report"
	"github.com/vietddude/inventorybot/internal/processing/retry"
	"github.com/vietddude/inventorybot/internal/processing/worker"
)

// Options overrides parts of the assembly, mostly for tests.
type Options struct {
	// Events replaces the rotating event log file
	Events io.Writer

	// Operation replaces the configured downstream operation
	Operation processor.Operation

	// Registry replaces the process metrics registry
	Registry *prometheus.Registry

	// Sleep replaces the backoff suspension
	Sleep func(time.Duration)
}

// Bot is the main application struct that manages the worker lifecycle.
type Bot struct {
	cfg          *config.AppConfig
	runID        string
	registry     *prometheus.Registry
	metrics      *metrics.Metrics
	pool         *worker.Pool
	deadLetters  health.DeadLetterCounter
	healthMon    *health.Monitor
	healthServer *health.Server
	pruner       *coreworker.Pruner
	db           *postgres.DB
	closers      []io.Closer
	log          *slog.Logger
}

// NewBot creates a new Bot with all dependencies initialized.
func NewBot(cfg *config.AppConfig, opts Options) (*Bot, error) {
	b := &Bot{
		cfg:   cfg,
		runID: uuid.NewString(),
	}
	b.log = slog.Default().With("run_id", b.runID)

	// 1. Metrics
	b.registry = opts.Registry
	if b.registry == nil {
		b.registry = prometheus.NewRegistry()
		b.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	b.metrics = metrics.New(b.registry)

	// 2. Event log
	events := opts.Events
	if events == nil {
		file, err := eventlog.OpenRotating(cfg.Logging.File, cfg.Logging.Backups)
		if err != nil {
			return nil, fmt.Errorf("failed to open event log: %w", err)
		}
		b.closers = append(b.closers, file)
		events = file
	}

	// 3. Dead-letter storage
	sinks, err := b.initDeadLetters()
	if err != nil {
		b.close()
		return nil, err
	}

	// 4. Downstream
	op := opts.Operation
	if op == nil {
		op = newOperation(cfg.Downstream)
	}

	reporter := report.New(eventlog.New(events), b.metrics, nil)
	controller := retry.NewController(processor.New(op), reporter, retry.Options{
		MaxRetries: cfg.Bot.MaxRetries,
		Backoff:    retry.Backoff{BaseDelay: cfg.Bot.BaseDelay},
		Sleep:      opts.Sleep,
	})

	// 5. Workers
	b.pool, err = worker.NewPool(worker.PoolConfig{
		Workers:    cfg.Bot.Workers,
		MaxBatches: cfg.Bot.MaxBatches,
		Controller: controller,
		Reporter:   reporter,
		Sinks:      sinks,
		Metrics:    b.metrics,
		Log:        b.log,
	})
	if err != nil {
		b.close()
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	// 6. Health
	b.healthMon = health.NewMonitor(b.pool, b.deadLetters, cfg.Bot.CriticalDeadLetters)
	if cfg.Server.Port > 0 {
		b.healthServer = health.NewServer(b.healthMon, b.registry, cfg.Server.Port)
	}

	return b, nil
}

func (b *Bot) initDeadLetters() (storage.SinkFactory, error) {
	dl := b.cfg.DeadLetter
	registry := memory.NewRegistry()
	b.deadLetters = registry

	switch dl.Backend {
	case config.BackendRedis:
		client, err := redisclient.NewClient(dl.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		b.closers = append(b.closers, client)

		repo := redisclient.NewDeadLetterRepo(client)
		b.deadLetters = repo
		b.pruner = coreworker.NewPruner(dl.Retention, repo)
		b.log.Info("Using Redis dead-letter storage")
		return storage.SharedSink(repo), nil

	case config.BackendPostgres:
		db, err := postgres.NewDB(context.Background(), dl.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		b.db = db
		b.closers = append(b.closers, db)

		if dl.Database.Migrate {
			if err := db.Migrate(context.Background()); err != nil {
				return nil, fmt.Errorf("failed to migrate db: %w", err)
			}
		}

		repo := postgres.NewDeadLetterRepo(db)
		b.deadLetters = repo
		b.pruner = coreworker.NewPruner(dl.Retention, repo)
		b.log.Info("Using PostgreSQL dead-letter storage")
		return storage.SharedSink(repo), nil

	case config.BackendKafka:
		fwd, err := kafka.NewForwarder(dl.Kafka)
		if err != nil {
			return nil, fmt.Errorf("failed to init kafka forwarder: %w", err)
		}
		b.closers = append(b.closers, fwd)
		b.log.Info("Forwarding dead letters to Kafka", "topic", dl.Kafka.Topic)
		return teeSinks(registry, fwd), nil

	case config.BackendLmstfy:
		fwd, err := lmstfy.NewForwarder(dl.Lmstfy)
		if err != nil {
			return nil, fmt.Errorf("failed to init lmstfy forwarder: %w", err)
		}
		b.log.Info("Forwarding dead letters to lmstfy", "queue", dl.Lmstfy.Queue)
		return teeSinks(registry, fwd), nil

	default:
		b.log.Info("Using in-memory dead-letter storage")
		return registry.ForWorker, nil
	}
}

// teeSinks keeps per-worker memory copies for health alongside a shared forwarder.
func teeSinks(registry *memory.Registry, shared storage.DeadLetterSink) storage.SinkFactory {
	return func(workerID int) storage.DeadLetterSink {
		return storage.MultiSink{registry.ForWorker(workerID), shared}
	}
}

func newOperation(cfg config.DownstreamConfig) processor.Operation {
	if cfg.Mode == config.DownstreamHTTP {
		return processor.NewHTTPOperation(cfg.Endpoint, cfg.Timeout).Operation()
	}
	return processor.NewSimulated(processor.SimulatedConfig{
		MinLatency:    cfg.MinLatency,
		MaxLatency:    cfg.MaxLatency,
		APIErrorRate:  cfg.APIErrorRate,
		TransientRate: cfg.TransientRate,
	}, nil).Operation()
}

// Run starts background services and processes batches until every worker
// reaches its bound or ctx is cancelled.
func (b *Bot) Run(ctx context.Context) ([]worker.Summary, error) {
	// Start Health Server
	if b.healthServer != nil {
		go func() {
			if err := b.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				b.log.Error("Health server failed", "error", err)
			}
		}()
		b.log.Info("Metrics server listening", "port", b.cfg.Server.Port)
	}

	// Start Pruner
	if b.pruner != nil {
		go b.pruner.Start(ctx)
	}

	// Start DB Metrics Collector
	if b.db != nil {
		b.db.StartMetricsCollector(ctx, b.metrics.DBPoolUsage)
	}

	start := time.Now()
	summaries, err := b.pool.Run(ctx)

	var total, dead int
	for _, s := range summaries {
		total += s.Processed
		dead += s.ByOutcome[domain.OutcomeDeadLettered]
	}
	b.log.Info("Run complete",
		"processed", total,
		"dead_letters", dead,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return summaries, err
}

// Health returns the current health report.
func (b *Bot) Health(ctx context.Context) health.Report {
	return b.healthMon.CheckHealth(ctx)
}

// Stop releases the server and storage connections.
func (b *Bot) Stop(ctx context.Context) error {
	b.log.Info("Stopping bot...")

	var err error
	if b.healthServer != nil {
		err = b.healthServer.Stop(ctx)
	}
	return errors.Join(err, b.close())
}

func (b *Bot) close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			b.log.Warn("Failed to close resource", "error", err)
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
