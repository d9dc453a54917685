package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/inventorybot/internal/core/domain"
	"github.com/vietddude/inventorybot/internal/processing/classify"
)

// =============================================================================
// Mocks
// =============================================================================

// scriptedProcessor returns errs in order, then succeeds forever.
type scriptedProcessor struct {
	mu        sync.Mutex
	errs      []error
	always    error
	durations []time.Duration
	calls     int
}

func (p *scriptedProcessor) Process(ctx context.Context, id domain.BatchID) (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.calls
	p.calls++

	d := time.Duration(i+1) * 10 * time.Millisecond
	if i < len(p.durations) {
		d = p.durations[i]
	}
	if p.always != nil {
		return d, p.always
	}
	if i < len(p.errs) {
		return d, p.errs[i]
	}
	return d, nil
}

type reportCall struct {
	kind    string
	id      domain.BatchID
	retry   int
	attempt domain.Attempt
	entry   domain.DeadLetterEntry
	err     error
}

type mockReporter struct {
	mu    sync.Mutex
	calls []reportCall
}

func (r *mockReporter) Success(ctx context.Context, id domain.BatchID, attempt domain.Attempt) {
	r.record(reportCall{kind: "success", id: id, attempt: attempt})
}

func (r *mockReporter) Retry(ctx context.Context, id domain.BatchID, retry int, err error) {
	r.record(reportCall{kind: "retry", id: id, retry: retry, err: err})
}

func (r *mockReporter) Failure(ctx context.Context, id domain.BatchID, err error) {
	r.record(reportCall{kind: "failure", id: id, err: err})
}

func (r *mockReporter) DeadLetter(ctx context.Context, entry domain.DeadLetterEntry) {
	r.record(reportCall{kind: "dead_letter", id: entry.BatchID, entry: entry})
}

func (r *mockReporter) record(c reportCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *mockReporter) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.kind
	}
	return out
}

type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(d time.Duration) {
	s.delays = append(s.delays, d)
}

func newTestController(p *scriptedProcessor, r *mockReporter, s *recordingSleeper, maxRetries int) *Controller {
	return NewController(p, r, Options{
		MaxRetries: maxRetries,
		Backoff:    Backoff{BaseDelay: 100 * time.Millisecond},
		Sleep:      s.Sleep,
	})
}

func equalKinds(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

var (
	errTransient = domain.NewTransientError("Temporary network issue")
	errAPI       = domain.NewAPIError("Inventory API error")
)

// =============================================================================
// Backoff
// =============================================================================

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{BaseDelay: 100 * time.Millisecond}

	tests := []struct {
		k    int
		want time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{10, 102400 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := b.Delay(tt.k); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.k, got, tt.want)
		}
	}
}

func TestBackoff_Deterministic(t *testing.T) {
	b := Backoff{BaseDelay: 37 * time.Millisecond}
	for k := 1; k <= 5; k++ {
		if b.Delay(k) != b.Delay(k) {
			t.Fatalf("Delay(%d) not deterministic", k)
		}
	}
}

// =============================================================================
// State machine
// =============================================================================

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateAttempting, StateAttempting, true},
		{StateAttempting, StateSucceeded, true},
		{StateAttempting, StateFailedTerminal, true},
		{StateAttempting, StateDeadLettered, true},
		{StateSucceeded, StateAttempting, false},
		{StateFailedTerminal, StateAttempting, false},
		{StateDeadLettered, StateSucceeded, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestState_IsTerminal(t *testing.T) {
	if StateAttempting.IsTerminal() {
		t.Error("attempting must not be terminal")
	}
	for _, s := range []State{StateSucceeded, StateFailedTerminal, StateDeadLettered} {
		if !s.IsTerminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
}

// =============================================================================
// Controller
// =============================================================================

func TestRun_SuccessFirstAttempt(t *testing.T) {
	p := &scriptedProcessor{}
	r := &mockReporter{}
	s := &recordingSleeper{}

	res := newTestController(p, r, s, 3).Run(context.Background(), "0-0")

	if res.State != StateSucceeded || res.Outcome != domain.OutcomeSuccess {
		t.Fatalf("expected success, got %s/%s", res.State, res.Outcome)
	}
	if res.Retries != 0 || len(res.Attempts) != 1 {
		t.Errorf("expected 1 attempt 0 retries, got %d/%d", len(res.Attempts), res.Retries)
	}
	if len(s.delays) != 0 {
		t.Errorf("expected no sleeps, got %v", s.delays)
	}
	if !equalKinds(r.kinds(), []string{"success"}) {
		t.Errorf("unexpected reports: %v", r.kinds())
	}
}

func TestRun_AlwaysRetryable_DeadLetters(t *testing.T) {
	p := &scriptedProcessor{always: errTransient}
	r := &mockReporter{}
	s := &recordingSleeper{}

	res := newTestController(p, r, s, 2).Run(context.Background(), "3-14")

	if res.State != StateDeadLettered || res.Outcome != domain.OutcomeDeadLettered {
		t.Fatalf("expected dead letter, got %s/%s", res.State, res.Outcome)
	}
	if p.calls != 3 || len(res.Attempts) != 3 {
		t.Errorf("expected 3 attempts, got calls=%d attempts=%d", p.calls, len(res.Attempts))
	}
	if res.Retries != 2 {
		t.Errorf("expected 2 retries, got %d", res.Retries)
	}

	want := []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}
	if len(s.delays) != len(want) {
		t.Fatalf("expected delays %v, got %v", want, s.delays)
	}
	for i := range want {
		if s.delays[i] != want[i] || res.Delays[i] != want[i] {
			t.Errorf("delay %d = %v (result %v), want %v", i, s.delays[i], res.Delays[i], want[i])
		}
	}

	if !equalKinds(r.kinds(), []string{"retry", "retry", "retry", "dead_letter"}) {
		t.Fatalf("unexpected reports: %v", r.kinds())
	}
	for i := 0; i < 3; i++ {
		if r.calls[i].retry != i {
			t.Errorf("retry event %d carries retry=%d", i, r.calls[i].retry)
		}
	}

	entry := r.calls[3].entry
	if entry.BatchID != "3-14" || entry.WorkerID != 3 || entry.Retries != 2 {
		t.Errorf("unexpected dead-letter entry: %+v", entry)
	}
	if entry.Reason != domain.ReasonRetriesExhausted || entry.ID == "" {
		t.Errorf("entry missing reason or id: %+v", entry)
	}
}

func TestRun_RetryThenSuccess(t *testing.T) {
	p := &scriptedProcessor{
		errs:      []error{errTransient, errTransient},
		durations: []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 75 * time.Millisecond},
	}
	r := &mockReporter{}
	s := &recordingSleeper{}

	res := newTestController(p, r, s, 3).Run(context.Background(), "0-5")

	if res.State != StateSucceeded {
		t.Fatalf("expected success, got %s", res.State)
	}
	if len(res.Attempts) != 3 || res.Retries != 2 {
		t.Errorf("expected 3 attempts 2 retries, got %d/%d", len(res.Attempts), res.Retries)
	}
	if !equalKinds(r.kinds(), []string{"retry", "retry", "success"}) {
		t.Fatalf("unexpected reports: %v", r.kinds())
	}
	if d := r.calls[2].attempt.Duration; d != 75*time.Millisecond {
		t.Errorf("success must carry third attempt duration, got %v", d)
	}
	if r.calls[2].attempt.Index != 2 {
		t.Errorf("expected attempt index 2, got %d", r.calls[2].attempt.Index)
	}
}

func TestRun_NonRetryable(t *testing.T) {
	p := &scriptedProcessor{always: errAPI}
	r := &mockReporter{}
	s := &recordingSleeper{}

	res := newTestController(p, r, s, 3).Run(context.Background(), "0-1")

	if res.State != StateFailedTerminal || res.Outcome != domain.OutcomeNonRetryable {
		t.Fatalf("expected terminal failure, got %s/%s", res.State, res.Outcome)
	}
	if p.calls != 1 || res.Retries != 0 {
		t.Errorf("expected 1 call 0 retries, got %d/%d", p.calls, res.Retries)
	}
	if len(s.delays) != 0 {
		t.Errorf("expected no sleeps, got %v", s.delays)
	}
	if !equalKinds(r.kinds(), []string{"failure"}) {
		t.Errorf("unexpected reports: %v", r.kinds())
	}
	if !errors.Is(r.calls[0].err, errAPI) {
		t.Errorf("failure must carry the api error, got %v", r.calls[0].err)
	}
}

func TestRun_RetryThenNonRetryable(t *testing.T) {
	p := &scriptedProcessor{errs: []error{errTransient, errAPI}}
	r := &mockReporter{}
	s := &recordingSleeper{}

	res := newTestController(p, r, s, 3).Run(context.Background(), "0-2")

	if res.State != StateFailedTerminal || res.Retries != 1 {
		t.Fatalf("expected terminal failure after 1 retry, got %s/%d", res.State, res.Retries)
	}
	if !equalKinds(r.kinds(), []string{"retry", "failure"}) {
		t.Errorf("unexpected reports: %v", r.kinds())
	}
}

func TestRun_ZeroMaxRetries(t *testing.T) {
	p := &scriptedProcessor{always: errTransient}
	r := &mockReporter{}
	s := &recordingSleeper{}

	res := newTestController(p, r, s, 0).Run(context.Background(), "0-0")

	if res.State != StateDeadLettered {
		t.Fatalf("expected dead letter, got %s", res.State)
	}
	if p.calls != 1 {
		t.Errorf("expected 1 attempt, got %d", p.calls)
	}
	if len(s.delays) != 0 || len(res.Delays) != 0 {
		t.Errorf("expected zero backoff invocations, got %v", s.delays)
	}
	if !equalKinds(r.kinds(), []string{"retry", "dead_letter"}) {
		t.Errorf("unexpected reports: %v", r.kinds())
	}
}

func TestRun_UnclassifiedIsRetried(t *testing.T) {
	p := &scriptedProcessor{errs: []error{errors.New("boom")}}
	r := &mockReporter{}
	s := &recordingSleeper{}

	res := newTestController(p, r, s, 1).Run(context.Background(), "0-0")

	if res.State != StateSucceeded || res.Retries != 1 {
		t.Errorf("expected success after 1 retry, got %s/%d", res.State, res.Retries)
	}
}

func TestRun_CustomClassifier(t *testing.T) {
	p := &scriptedProcessor{always: errTransient}
	r := &mockReporter{}

	var everythingFatal classify.Classifier = func(err error) domain.Outcome {
		if err == nil {
			return domain.OutcomeSuccess
		}
		return domain.OutcomeNonRetryable
	}

	c := NewController(p, r, Options{MaxRetries: 3, Classifier: everythingFatal, Sleep: func(time.Duration) {}})
	res := c.Run(context.Background(), "0-0")

	if res.State != StateFailedTerminal || p.calls != 1 {
		t.Errorf("expected immediate terminal failure, got %s after %d calls", res.State, p.calls)
	}
}

func TestRun_AttemptBound(t *testing.T) {
	for maxRetries := 0; maxRetries <= 5; maxRetries++ {
		p := &scriptedProcessor{always: errTransient}
		r := &mockReporter{}
		s := &recordingSleeper{}

		res := newTestController(p, r, s, maxRetries).Run(context.Background(), "0-0")

		if len(res.Attempts) != 1+res.Retries {
			t.Errorf("maxRetries=%d: attempts %d != 1 + retries %d", maxRetries, len(res.Attempts), res.Retries)
		}
		if len(res.Attempts) != 1+maxRetries {
			t.Errorf("maxRetries=%d: expected %d attempts, got %d", maxRetries, 1+maxRetries, len(res.Attempts))
		}
		for k, d := range s.delays {
			if want := (Backoff{BaseDelay: 100 * time.Millisecond}).Delay(k + 1); d != want {
				t.Errorf("maxRetries=%d: delay before attempt %d = %v, want %v", maxRetries, k+1, d, want)
			}
		}
	}
}

func TestNewController_Defaults(t *testing.T) {
	c := NewController(&scriptedProcessor{}, &mockReporter{}, Options{MaxRetries: -1})

	if c.MaxRetries() != 0 {
		t.Errorf("negative retries must clamp to 0, got %d", c.MaxRetries())
	}
	if c.backoff.BaseDelay != DefaultBaseDelay {
		t.Errorf("expected default base delay, got %v", c.backoff.BaseDelay)
	}
}

func TestWithReporter(t *testing.T) {
	base := &mockReporter{}
	other := &mockReporter{}
	c := NewController(&scriptedProcessor{}, base, Options{Sleep: func(time.Duration) {}})

	c.WithReporter(other).Run(context.Background(), "1-0")

	if len(base.kinds()) != 0 || len(other.kinds()) != 1 {
		t.Errorf("expected report on derived reporter only, base=%v other=%v", base.kinds(), other.kinds())
	}
}
