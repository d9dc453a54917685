// Package retry drives a single batch through attempts, backoff and a terminal decision.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/inventorybot/internal/core/domain"
	"github.com/vietddude/inventorybot/internal/processing/classify"
	"github.com/vietddude/inventorybot/internal/processing/processor"
	"github.com/vietddude/inventorybot/internal/processing/report"
)

// Options configures a Controller.
type Options struct {
	// MaxRetries is the retry ceiling; 0 dead-letters on the first retryable failure
	MaxRetries int

	Backoff    Backoff
	Classifier classify.Classifier

	// Sleep suspends the worker between attempts. Defaults to time.Sleep.
	Sleep func(time.Duration)

	// Now stamps dead-letter entries. Defaults to time.Now.
	Now func() time.Time
}

// Result is the terminal record of one batch.
type Result struct {
	BatchID  domain.BatchID
	State    State
	Outcome  domain.Outcome
	Attempts []domain.Attempt
	Retries  int
	Delays   []time.Duration
}

// Controller owns the per-batch retry state machine.
type Controller struct {
	processor  processor.BatchProcessor
	reporter   report.Reporter
	maxRetries int
	backoff    Backoff
	classify   classify.Classifier
	sleep      func(time.Duration)
	now        func() time.Time
}

// NewController creates a controller reporting every transition to reporter.
func NewController(p processor.BatchProcessor, r report.Reporter, opts Options) *Controller {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff.BaseDelay <= 0 {
		opts.Backoff.BaseDelay = DefaultBaseDelay
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.Default
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Controller{
		processor:  p,
		reporter:   r,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		classify:   opts.Classifier,
		sleep:      opts.Sleep,
		now:        opts.Now,
	}
}

// WithReporter returns a copy of the controller reporting to r.
func (c *Controller) WithReporter(r report.Reporter) *Controller {
	clone := *c
	clone.reporter = r
	return &clone
}

// MaxRetries returns the configured retry ceiling.
func (c *Controller) MaxRetries() int {
	return c.maxRetries
}

// Run processes id until it reaches a terminal state. Failures never escape;
// they are reported and recorded in the Result.
func (c *Controller) Run(ctx context.Context, id domain.BatchID) Result {
	res := Result{BatchID: id, State: StateAttempting}
	retries := 0

	for {
		duration, err := c.processor.Process(ctx, id)
		attempt := domain.Attempt{Index: len(res.Attempts), Duration: duration, Err: err}
		res.Attempts = append(res.Attempts, attempt)

		switch c.classify(err) {
		case domain.OutcomeSuccess:
			c.reporter.Success(ctx, id, attempt)
			res.finish(StateSucceeded, domain.OutcomeSuccess, retries)
			return res

		case domain.OutcomeNonRetryable:
			c.reporter.Failure(ctx, id, err)
			res.finish(StateFailedTerminal, domain.OutcomeNonRetryable, retries)
			return res

		default:
			c.reporter.Retry(ctx, id, retries, err)
			if retries < c.maxRetries {
				retries++
				delay := c.backoff.Delay(retries)
				res.Delays = append(res.Delays, delay)
				res.transition(StateAttempting)
				c.sleep(delay)
				continue
			}

			c.reporter.DeadLetter(ctx, c.deadLetter(id, retries))
			res.finish(StateDeadLettered, domain.OutcomeDeadLettered, retries)
			return res
		}
	}
}

func (c *Controller) deadLetter(id domain.BatchID, retries int) domain.DeadLetterEntry {
	workerID, _, _ := domain.ParseBatchID(id.String())
	return domain.DeadLetterEntry{
		ID:        uuid.NewString(),
		WorkerID:  workerID,
		BatchID:   id,
		Reason:    domain.ReasonRetriesExhausted,
		Retries:   retries,
		CreatedAt: c.now(),
	}
}

func (r *Result) transition(to State) {
	if !CanTransition(r.State, to) {
		panic(fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, to))
	}
	r.State = to
}

func (r *Result) finish(to State, outcome domain.Outcome, retries int) {
	r.transition(to)
	r.Outcome = outcome
	r.Retries = retries
}
