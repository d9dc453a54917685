package domain

import "time"

// DeadLetterEntry represents a batch that exhausted its retry budget.
type DeadLetterEntry struct {
	ID        string    `json:"id"        db:"id"`
	WorkerID  int       `json:"worker_id" db:"worker_id"`
	BatchID   BatchID   `json:"batch_id"  db:"batch_id"`
	Reason    string    `json:"reason"    db:"reason"`
	Retries   int       `json:"retries"   db:"retries"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ReasonRetriesExhausted is the terminal reason recorded for every dead letter.
const ReasonRetriesExhausted = "retries_exhausted"
