package domain

import "time"

// Acquisition job lifecycle: pending -> running -> completed|failed.
// A failed run with attempts left goes back to pending; attempts never
// exceed MaxJobAttempts and failed is terminal.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"

	MaxJobAttempts = 3
)

type AcquisitionJob struct {
	ID        int64     `json:"id"`
	GoalID    int64     `json:"goalId"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
