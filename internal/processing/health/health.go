// Package health provides bot health monitoring and status reporting.
package health

// SystemStatus represents the overall health state of the bot or a worker.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// WorkerHealth contains health metrics for a single worker.
type WorkerHealth struct {
	WorkerID    int          `json:"worker_id"`
	Status      SystemStatus `json:"status"`
	Processed   int64        `json:"processed"`
	DeadLetters int          `json:"dead_letters"`
}

// Report contains the full health report.
type Report struct {
	SystemStatus  SystemStatus   `json:"system_status"`
	ActiveWorkers int            `json:"active_workers"`
	Processed     int64          `json:"processed"`
	Workers       []WorkerHealth `json:"workers"`
}

func worst(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
