package approval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sevenms-trading-bot/internal/risk"
)

// Gate is the human approval state machine. Submit suspends a run by
// parking its proposed parameters as a pending request; Resolve applies
// an approve/reject/edit decision exactly once and, for approve and
// edit, produces the single order intent forwarded to execution.
//
// mu serializes the read-check-write sequences in Submit and Resolve.
// Without it two concurrent resolves of one request both see
// StatePending and both produce an intent; the HTTP decision endpoint
// makes that interleaving reachable from a retried request.
type Gate struct {
	mu     sync.Mutex
	store  Store
	logger zerolog.Logger
}

// NewGate creates an approval gate over the given store
func NewGate(store Store, logger zerolog.Logger) *Gate {
	return &Gate{
		store:  store,
		logger: logger.With().Str("component", "approval_gate").Logger(),
	}
}

// Submit parks trade parameters as a pending request for the thread.
// Fails with ErrAlreadyPending when the thread already has one — at most
// one outstanding request exists per run thread.
func (g *Gate) Submit(ctx context.Context, threadID, symbol string, proposed risk.Parameters, volume float64, comment string) (*Request, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	existing, err := g.store.PendingForThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending requests: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: thread %s has request %s", ErrAlreadyPending, threadID, existing.ID)
	}

	req := &Request{
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		Symbol:    symbol,
		Proposed:  proposed,
		Volume:    volume,
		Comment:   comment,
		State:     StatePending,
		CreatedAt: time.Now().UTC(),
	}

	if err := g.store.Save(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save request: %w", err)
	}

	g.logger.Info().
		Str("request_id", req.ID).
		Str("thread_id", threadID).
		Str("symbol", symbol).
		Str("side", string(proposed.Side)).
		Float64("entry", proposed.EntryPrice).
		Float64("stop_loss", proposed.StopLoss).
		Float64("take_profit", proposed.TakeProfit).
		Msg("trade proposal awaiting approval")

	return req, nil
}

// Pending returns the thread's pending request, or nil when none exists
func (g *Gate) Pending(ctx context.Context, threadID string) (*Request, error) {
	return g.store.PendingForThread(ctx, threadID)
}

// Get returns a request by ID
func (g *Gate) Get(ctx context.Context, requestID string) (*Request, error) {
	return g.store.Get(ctx, requestID)
}

// Resolve applies a decision to a pending request.
//
// Approve carries the proposed parameters into the intent unchanged.
// Edit replaces entry, stop, target and volume wholesale — the edited
// values are not re-validated, by the strategy's own rules the human
// override is final. Reject records the reason and produces no intent.
// Resolution is exactly-once: a second call fails with ErrAlreadyResolved.
func (g *Gate) Resolve(ctx context.Context, requestID string, decision Decision) (*OrderIntent, *Request, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	req, err := g.store.Get(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req.State.Terminal() {
		return nil, nil, fmt.Errorf("%w: request %s is %s", ErrAlreadyResolved, requestID, req.State)
	}

	now := time.Now().UTC()
	req.ResolvedAt = &now

	var intent *OrderIntent

	switch decision.Type {
	case DecisionApprove:
		req.State = StateApproved
		final := req.Proposed
		req.Final = &final
		intent = g.intentFrom(req, final, req.Volume, false)

	case DecisionEdit:
		if decision.Edited == nil {
			return nil, nil, fmt.Errorf("edit decision for %s carries no parameters", requestID)
		}
		req.State = StateEdited
		final := *decision.Edited
		req.Final = &final
		volume := decision.Volume
		if volume <= 0 {
			volume = req.Volume
		}
		intent = g.intentFrom(req, final, volume, true)

	case DecisionReject:
		req.State = StateRejected
		req.RejectReason = decision.Reason
		if req.RejectReason == "" {
			req.RejectReason = "trade rejected by user"
		}

	default:
		return nil, nil, fmt.Errorf("unknown decision type %q", decision.Type)
	}

	if err := g.store.Update(ctx, req); err != nil {
		return nil, nil, fmt.Errorf("failed to persist resolution: %w", err)
	}

	g.logger.Info().
		Str("request_id", req.ID).
		Str("decision", string(decision.Type)).
		Str("state", string(req.State)).
		Msg("approval request resolved")

	return intent, req, nil
}

// Cancel resolves the thread's pending request, if any, as an implicit
// reject. Used when a run is cancelled so no partial order intent ever
// escapes.
func (g *Gate) Cancel(ctx context.Context, threadID, reason string) (*Request, error) {
	req, err := g.store.PendingForThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, nil
	}
	if reason == "" {
		reason = "run cancelled"
	}
	_, resolved, err := g.Resolve(ctx, req.ID, Decision{Type: DecisionReject, Reason: reason})
	return resolved, err
}

func (g *Gate) intentFrom(req *Request, params risk.Parameters, volume float64, edited bool) *OrderIntent {
	return &OrderIntent{
		RequestID:  req.ID,
		ThreadID:   req.ThreadID,
		Symbol:     req.Symbol,
		Side:       params.Side,
		Volume:     volume,
		EntryPrice: params.EntryPrice,
		StopLoss:   params.StopLoss,
		TakeProfit: params.TakeProfit,
		Comment:    req.Comment,
		Edited:     edited,
	}
}
