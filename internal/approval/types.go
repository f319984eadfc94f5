package approval

import (
	"errors"
	"time"

	"sevenms-trading-bot/internal/risk"
)

// State is the lifecycle state of an approval request
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateRejected State = "rejected"
	StateEdited   State = "edited"
)

// Terminal reports whether the state admits no further transitions
func (s State) Terminal() bool {
	return s == StateApproved || s == StateRejected || s == StateEdited
}

// DecisionType is the kind of resolution applied to a pending request
type DecisionType string

const (
	DecisionApprove DecisionType = "approve"
	DecisionReject  DecisionType = "reject"
	DecisionEdit    DecisionType = "edit"
)

// Decision resolves a pending request. Reject carries a reason; Edit
// fully replaces the proposed parameters and volume. Edited parameters
// are deliberately not re-validated against the 2:1 rule — the human
// override wins.
type Decision struct {
	Type   DecisionType     `json:"type"`
	Reason string           `json:"reason,omitempty"`
	Edited *risk.Parameters `json:"edited,omitempty"`
	Volume float64          `json:"volume,omitempty"`
}

// Request is a pending trade decision awaiting a human. It is the only
// pipeline state that survives the gap between analysis and decision;
// one pending request exists per run thread at most.
type Request struct {
	ID           string          `json:"id"`
	ThreadID     string          `json:"thread_id"`
	Symbol       string          `json:"symbol"`
	Proposed     risk.Parameters `json:"proposed"`
	Volume       float64         `json:"volume"`
	Comment      string          `json:"comment,omitempty"`
	State        State           `json:"state"`
	CreatedAt    time.Time       `json:"created_at"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty"`
	RejectReason string          `json:"reject_reason,omitempty"`
	// Final holds the parameters carried into the order intent: the
	// proposal for an approve, the replacement for an edit.
	Final *risk.Parameters `json:"final,omitempty"`
}

// OrderIntent is the single execution instruction produced by a
// resolved-approved or resolved-edited request
type OrderIntent struct {
	RequestID  string    `json:"request_id"`
	ThreadID   string    `json:"thread_id"`
	Symbol     string    `json:"symbol"`
	Side       risk.Side `json:"side"`
	Volume     float64   `json:"volume"`
	EntryPrice float64   `json:"entry_price"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Comment    string    `json:"comment,omitempty"`
	Edited     bool      `json:"edited"`
}

var (
	// ErrAlreadyPending is returned when a thread already has an
	// unresolved request
	ErrAlreadyPending = errors.New("a request is already pending for this thread")

	// ErrAlreadyResolved is returned when resolving a request twice
	ErrAlreadyResolved = errors.New("request already resolved")

	// ErrNotFound is returned for an unknown request ID
	ErrNotFound = errors.New("approval request not found")
)
