package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BatchID identifies one unit of work within a worker's namespace.
type BatchID string

// NewBatchID combines worker identity and sequence number.
func NewBatchID(workerID, seq int) BatchID {
	return BatchID(fmt.Sprintf("%d-%d", workerID, seq))
}

func (id BatchID) String() string {
	return string(id)
}

// ParseBatchID splits "{worker}-{seq}".
func ParseBatchID(s string) (workerID, seq int, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid batch id: %s", s)
	}

	workerID, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid worker id: %w", err)
	}

	seq, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid sequence: %w", err)
	}

	return workerID, seq, nil
}

// Attempt is one execution of the downstream operation for a batch.
// Err is nil on success.
type Attempt struct {
	Index    int
	Duration time.Duration
	Err      error
}
