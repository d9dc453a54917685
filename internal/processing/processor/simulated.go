package processor

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/vietddude/inventorybot/internal/core/domain"
)

// SimulatedConfig controls the synthetic inventory API.
type SimulatedConfig struct {
	MinLatency    time.Duration
	MaxLatency    time.Duration
	APIErrorRate  float64 // probability of a non-retryable failure
	TransientRate float64 // probability of a retryable failure
}

// DefaultSimulatedConfig mirrors the production failure profile.
// 50-200ms latency, 3% API errors, 2% transient errors.
func DefaultSimulatedConfig() SimulatedConfig {
	return SimulatedConfig{
		MinLatency:    50 * time.Millisecond,
		MaxLatency:    200 * time.Millisecond,
		APIErrorRate:  0.03,
		TransientRate: 0.02,
	}
}

// Simulated is a randomized stand-in for the inventory API.
type Simulated struct {
	cfg   SimulatedConfig
	rng   *rand.Rand
	mu    sync.Mutex
	sleep func(context.Context, time.Duration)
}

// NewSimulated creates a simulated operation. A nil rng uses a random seed.
func NewSimulated(cfg SimulatedConfig, rng *rand.Rand) *Simulated {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Simulated{cfg: cfg, rng: rng, sleep: sleepContext}
}

// Operation returns s as an Operation.
func (s *Simulated) Operation() Operation {
	return s.Call
}

// Call sleeps for a random latency then fails according to the configured rates.
func (s *Simulated) Call(ctx context.Context, id domain.BatchID) error {
	s.mu.Lock()
	latency := s.cfg.MinLatency
	if span := s.cfg.MaxLatency - s.cfg.MinLatency; span > 0 {
		latency += time.Duration(s.rng.Int64N(int64(span)))
	}
	r := s.rng.Float64()
	s.mu.Unlock()

	s.sleep(ctx, latency)

	switch {
	case r < s.cfg.APIErrorRate:
		return domain.NewAPIError("Inventory API error")
	case r < s.cfg.APIErrorRate+s.cfg.TransientRate:
		return domain.NewTransientError("Temporary network issue")
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
