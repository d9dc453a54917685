// Package fakelogs generates synthetic batch logs and a matching metrics textfile.
package fakelogs

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	LogFileName     = "inventory_fake.log"
	MetricsFileName = "inventory_metrics.prom"

	timestampFormat = "2006-01-02T15:04:05.000000"
)

// Outcome labels written to the synthetic log, with their weights.
var outcomes = []struct {
	label  string
	weight float64
}{
	{"success", 0.92},
	{"error", 0.05},
	{"retry", 0.03},
}

// Config controls generation.
type Config struct {
	Dir         string
	Count       int
	MinDuration time.Duration
	MaxDuration time.Duration

	Rand *rand.Rand
	Now  func() time.Time
}

// DefaultConfig matches the historical generator.
func DefaultConfig() Config {
	return Config{
		Dir:         "../data",
		Count:       10000,
		MinDuration: 50 * time.Millisecond,
		MaxDuration: 500 * time.Millisecond,
	}
}

// Record is one synthetic log line.
type Record struct {
	Timestamp string  `json:"timestamp"`
	BatchID   int     `json:"batch_id"`
	Duration  float64 `json:"duration"`
	Outcome   string  `json:"outcome"`
}

// Result describes what was written.
type Result struct {
	LogPath     string
	MetricsPath string
	Counts      map[string]int
}

// Generate writes Count records to Dir/inventory_fake.log and the duration
// summary to Dir/inventory_metrics.prom.
func Generate(cfg Config) (*Result, error) {
	if cfg.Count < 0 {
		return nil, fmt.Errorf("count must be >= 0, got %d", cfg.Count)
	}
	if cfg.MaxDuration < cfg.MinDuration {
		return nil, fmt.Errorf("duration range invalid: %s..%s", cfg.MinDuration, cfg.MaxDuration)
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	registry := prometheus.NewRegistry()
	latency := prometheus.NewSummary(prometheus.SummaryOpts{
		Name: "inv_batch_seconds",
		Help: "Inventory batch duration",
	})
	registry.MustRegister(latency)

	res := &Result{
		LogPath:     filepath.Join(cfg.Dir, LogFileName),
		MetricsPath: filepath.Join(cfg.Dir, MetricsFileName),
		Counts:      make(map[string]int),
	}

	f, err := os.Create(res.LogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)

	for i := 0; i < cfg.Count; i++ {
		rec := Record{
			Timestamp: cfg.Now().Format(timestampFormat),
			BatchID:   i,
			Duration:  round3(uniform(cfg.Rand, cfg.MinDuration, cfg.MaxDuration)),
			Outcome:   pick(cfg.Rand),
		}
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("failed to write record %d: %w", i, err)
		}
		latency.Observe(rec.Duration)
		res.Counts[rec.Outcome]++
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush log file: %w", err)
	}

	if err := prometheus.WriteToTextfile(res.MetricsPath, registry); err != nil {
		return nil, fmt.Errorf("failed to write metrics file: %w", err)
	}

	return res, nil
}

func uniform(r *rand.Rand, lo, hi time.Duration) float64 {
	return lo.Seconds() + r.Float64()*(hi-lo).Seconds()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func pick(r *rand.Rand) string {
	x := r.Float64()
	for _, o := range outcomes {
		if x < o.weight {
			return o.label
		}
		x -= o.weight
	}
	return outcomes[len(outcomes)-1].label
}
