package database

import (
	"time"
)

// RunRecord is one journaled analysis run row
type RunRecord struct {
	RunID        string    `json:"run_id"`
	ThreadID     string    `json:"thread_id"`
	Symbol       string    `json:"symbol"`
	Status       string    `json:"status"`
	Bias         string    `json:"bias"`
	CurrentPrice float64   `json:"current_price"`
	RequestID    *string   `json:"request_id,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}
