package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vietddude/inventorybot/internal/processing/metrics"
	"github.com/vietddude/inventorybot/internal/processing/worker"
)

// =============================================================================
// Mocks
// =============================================================================

type stubProgress struct {
	progress worker.Progress
}

func (s *stubProgress) Progress() worker.Progress { return s.progress }

type stubCounter struct {
	counts map[int]int
	err    error
	calls  int
}

func (s *stubCounter) Count(ctx context.Context, workerID int) (int, error) {
	s.calls++
	return s.counts[workerID], s.err
}

func twoWorkers() *stubProgress {
	return &stubProgress{progress: worker.Progress{Active: 2, Processed: 30, PerWorker: []int64{10, 20}}}
}

// =============================================================================
// Monitor
// =============================================================================

func TestMonitor_Healthy(t *testing.T) {
	m := NewMonitor(twoWorkers(), &stubCounter{}, 10)

	report := m.CheckHealth(context.Background())

	if report.SystemStatus != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.SystemStatus)
	}
	if report.Processed != 30 || len(report.Workers) != 2 || report.Workers[1].Processed != 20 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestMonitor_Degraded(t *testing.T) {
	m := NewMonitor(twoWorkers(), &stubCounter{counts: map[int]int{1: 2}}, 10)

	report := m.CheckHealth(context.Background())

	if report.SystemStatus != StatusDegraded {
		t.Errorf("expected degraded, got %s", report.SystemStatus)
	}
	if report.Workers[0].Status != StatusHealthy || report.Workers[1].Status != StatusDegraded {
		t.Errorf("unexpected worker statuses: %+v", report.Workers)
	}
}

func TestMonitor_Critical(t *testing.T) {
	m := NewMonitor(twoWorkers(), &stubCounter{counts: map[int]int{0: 11}}, 10)

	report := m.CheckHealth(context.Background())

	if report.SystemStatus != StatusCritical {
		t.Errorf("expected critical, got %s", report.SystemStatus)
	}
}

func TestMonitor_CounterErrorDegrades(t *testing.T) {
	m := NewMonitor(twoWorkers(), &stubCounter{err: errors.New("redis down")}, 10)

	if got := m.CheckHealth(context.Background()).SystemStatus; got != StatusDegraded {
		t.Errorf("expected degraded, got %s", got)
	}
}

func TestMonitor_CachesReport(t *testing.T) {
	counter := &stubCounter{}
	m := NewMonitor(twoWorkers(), counter, 10)
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }

	m.CheckHealth(context.Background())
	m.CheckHealth(context.Background())
	if counter.calls != 2 {
		t.Errorf("expected cached second check, got %d count calls", counter.calls)
	}

	now = now.Add(6 * time.Second)
	m.CheckHealth(context.Background())
	if counter.calls != 4 {
		t.Errorf("expected refresh after ttl, got %d count calls", counter.calls)
	}
}

// =============================================================================
// Server
// =============================================================================

func TestServer_Endpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg)

	m := NewMonitor(twoWorkers(), &stubCounter{counts: map[int]int{0: 50}}, 10).WithCacheTTL(0)
	srv := httptest.NewServer(NewServer(m, reg, 0).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable || body["status"] != "critical" {
		t.Errorf("unexpected /health: %d %v", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/health/detailed")
	if err != nil {
		t.Fatalf("GET /health/detailed failed: %v", err)
	}
	var report Report
	json.NewDecoder(resp.Body).Decode(&report)
	resp.Body.Close()
	if len(report.Workers) != 2 || report.Workers[0].DeadLetters != 50 {
		t.Errorf("unexpected detailed report: %+v", report)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	exposition, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(exposition), `inv_batches_total{outcome="dead_letter"} 0`) {
		t.Errorf("metrics exposition missing outcome series:\n%s", exposition)
	}
}
