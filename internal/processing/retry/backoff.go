package retry

import (
	"math"
	"time"
)

// DefaultBaseDelay matches the bot's historical 0.1s base.
const DefaultBaseDelay = 100 * time.Millisecond

// Backoff is a deterministic exponential delay policy.
type Backoff struct {
	BaseDelay time.Duration
}

// Delay returns BaseDelay * 2^k, where k is the retry count after increment.
func (b Backoff) Delay(k int) time.Duration {
	if k < 0 {
		k = 0
	}
	delay := float64(b.BaseDelay) * math.Pow(2, float64(k))
	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}
