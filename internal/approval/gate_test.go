package approval

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"sevenms-trading-bot/internal/risk"
)

func testGate() *Gate {
	return NewGate(NewMemoryStore(), zerolog.Nop())
}

func proposal() risk.Parameters {
	return risk.Parameters{
		Side:            risk.Buy,
		EntryPrice:      4190.0,
		StopLoss:        4178.0,
		TakeProfit:      4214.0,
		RiskRewardRatio: 2.0,
	}
}

// TestSubmitAndApprove checks the happy path: the approved intent carries
// the original parameters unchanged
func TestSubmitAndApprove(t *testing.T) {
	gate := testGate()
	ctx := context.Background()

	req, err := gate.Submit(ctx, "thread-1", "XAUUSD", proposal(), 0.01, "7MS Strategy")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if req.State != StatePending {
		t.Errorf("new request should be pending, got %s", req.State)
	}

	intent, resolved, err := gate.Resolve(ctx, req.ID, Decision{Type: DecisionApprove})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.State != StateApproved {
		t.Errorf("expected approved state, got %s", resolved.State)
	}
	if intent == nil {
		t.Fatal("approve must yield an order intent")
	}
	if intent.EntryPrice != 4190.0 || intent.StopLoss != 4178.0 || intent.TakeProfit != 4214.0 {
		t.Errorf("approve must carry original parameters, got entry=%v sl=%v tp=%v",
			intent.EntryPrice, intent.StopLoss, intent.TakeProfit)
	}
	if intent.Volume != 0.01 {
		t.Errorf("expected volume 0.01, got %v", intent.Volume)
	}
}

// TestEditCarriesNewValues covers the edit decision: the resulting intent
// carries exactly the edited values, not the originals
func TestEditCarriesNewValues(t *testing.T) {
	gate := testGate()
	ctx := context.Background()

	req, err := gate.Submit(ctx, "thread-1", "XAUUSD", proposal(), 0.01, "")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	edited := risk.Parameters{
		Side:       risk.Buy,
		EntryPrice: 4192.0,
		StopLoss:   4180.0,
		TakeProfit: 4220.0,
	}

	intent, resolved, err := gate.Resolve(ctx, req.ID, Decision{Type: DecisionEdit, Edited: &edited})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.State != StateEdited {
		t.Errorf("expected edited state, got %s", resolved.State)
	}
	if intent.EntryPrice != 4192.0 || intent.StopLoss != 4180.0 || intent.TakeProfit != 4220.0 {
		t.Errorf("edit must carry edited values, got entry=%v sl=%v tp=%v",
			intent.EntryPrice, intent.StopLoss, intent.TakeProfit)
	}
	if !intent.Edited {
		t.Error("intent should be flagged as edited")
	}
}

// TestRejectYieldsNoIntent verifies a rejection records the reason and
// produces no order intent
func TestRejectYieldsNoIntent(t *testing.T) {
	gate := testGate()
	ctx := context.Background()

	req, _ := gate.Submit(ctx, "thread-1", "XAUUSD", proposal(), 0.01, "")

	intent, resolved, err := gate.Resolve(ctx, req.ID, Decision{Type: DecisionReject, Reason: "spread too wide"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if intent != nil {
		t.Error("reject must not yield an order intent")
	}
	if resolved.State != StateRejected {
		t.Errorf("expected rejected state, got %s", resolved.State)
	}
	if resolved.RejectReason != "spread too wide" {
		t.Errorf("reason not recorded, got %q", resolved.RejectReason)
	}
}

// TestAlreadyPending ensures a second submit on the same thread fails
// while a request is outstanding
func TestAlreadyPending(t *testing.T) {
	gate := testGate()
	ctx := context.Background()

	if _, err := gate.Submit(ctx, "thread-1", "XAUUSD", proposal(), 0.01, ""); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := gate.Submit(ctx, "thread-1", "XAUUSD", proposal(), 0.01, ""); !errors.Is(err, ErrAlreadyPending) {
		t.Errorf("second submit should fail with ErrAlreadyPending, got %v", err)
	}

	// An independent thread is unaffected
	if _, err := gate.Submit(ctx, "thread-2", "XAUUSD", proposal(), 0.01, ""); err != nil {
		t.Errorf("independent thread should be able to submit: %v", err)
	}
}

// TestAlreadyResolved ensures resolution is exactly-once
func TestAlreadyResolved(t *testing.T) {
	gate := testGate()
	ctx := context.Background()

	req, _ := gate.Submit(ctx, "thread-1", "XAUUSD", proposal(), 0.01, "")

	if _, _, err := gate.Resolve(ctx, req.ID, Decision{Type: DecisionApprove}); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	if _, _, err := gate.Resolve(ctx, req.ID, Decision{Type: DecisionApprove}); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("second resolve should fail with ErrAlreadyResolved, got %v", err)
	}
	if _, _, err := gate.Resolve(ctx, req.ID, Decision{Type: DecisionReject}); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("reject after approve should fail with ErrAlreadyResolved, got %v", err)
	}
}

// TestConcurrentResolves races several resolves of one request: exactly
// one may win and produce an intent, the rest must see ErrAlreadyResolved
func TestConcurrentResolves(t *testing.T) {
	gate := testGate()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		req, err := gate.Submit(ctx, "thread-1", "XAUUSD", proposal(), 0.01, "")
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}

		const racers = 4
		start := make(chan struct{})
		var wg sync.WaitGroup
		var intents, resolvedErrs int32

		for r := 0; r < racers; r++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				intent, _, err := gate.Resolve(ctx, req.ID, Decision{Type: DecisionApprove})
				switch {
				case err == nil:
					if intent == nil {
						t.Error("winning resolve must yield an intent")
					}
					atomic.AddInt32(&intents, 1)
				case errors.Is(err, ErrAlreadyResolved):
					atomic.AddInt32(&resolvedErrs, 1)
				default:
					t.Errorf("unexpected resolve error: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()

		if intents != 1 {
			t.Fatalf("expected exactly one order intent, got %d", intents)
		}
		if resolvedErrs != racers-1 {
			t.Fatalf("expected %d ErrAlreadyResolved, got %d", racers-1, resolvedErrs)
		}
	}
}

// TestConcurrentSubmits races submits on one thread: only one request may
// end up pending
func TestConcurrentSubmits(t *testing.T) {
	gate := testGate()
	ctx := context.Background()

	const racers = 4
	start := make(chan struct{})
	var wg sync.WaitGroup
	var accepted int32

	for r := 0; r < racers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := gate.Submit(ctx, "thread-1", "XAUUSD", proposal(), 0.01, "")
			switch {
			case err == nil:
				atomic.AddInt32(&accepted, 1)
			case errors.Is(err, ErrAlreadyPending):
			default:
				t.Errorf("unexpected submit error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if accepted != 1 {
		t.Fatalf("expected exactly one accepted submit, got %d", accepted)
	}
}

// TestResolveUnknownRequest checks the not-found path
func TestResolveUnknownRequest(t *testing.T) {
	gate := testGate()

	if _, _, err := gate.Resolve(context.Background(), "no-such-id", Decision{Type: DecisionApprove}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestSubmitAfterResolution verifies a thread can propose again once its
// previous request reached a terminal state
func TestSubmitAfterResolution(t *testing.T) {
	gate := testGate()
	ctx := context.Background()

	req, _ := gate.Submit(ctx, "thread-1", "XAUUSD", proposal(), 0.01, "")
	if _, _, err := gate.Resolve(ctx, req.ID, Decision{Type: DecisionReject, Reason: "no"}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if _, err := gate.Submit(ctx, "thread-1", "XAUUSD", proposal(), 0.01, ""); err != nil {
		t.Errorf("submit after resolution should succeed: %v", err)
	}
}

// TestCancelPending checks run cancellation resolves the pending request
// as an implicit reject
func TestCancelPending(t *testing.T) {
	gate := testGate()
	ctx := context.Background()

	req, _ := gate.Submit(ctx, "thread-1", "XAUUSD", proposal(), 0.01, "")

	resolved, err := gate.Cancel(ctx, "thread-1", "")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if resolved == nil || resolved.ID != req.ID {
		t.Fatal("cancel should resolve the pending request")
	}
	if resolved.State != StateRejected {
		t.Errorf("cancelled request should be rejected, got %s", resolved.State)
	}

	// Cancelling an idle thread is a no-op
	if resolved, err := gate.Cancel(ctx, "thread-9", ""); err != nil || resolved != nil {
		t.Errorf("cancel on idle thread should be a no-op, got %v %v", resolved, err)
	}
}

// TestEditWithoutParameters ensures a malformed edit fails without
// touching the request state
func TestEditWithoutParameters(t *testing.T) {
	gate := testGate()
	ctx := context.Background()

	req, _ := gate.Submit(ctx, "thread-1", "XAUUSD", proposal(), 0.01, "")

	if _, _, err := gate.Resolve(ctx, req.ID, Decision{Type: DecisionEdit}); err == nil {
		t.Fatal("edit without parameters should fail")
	}

	got, err := gate.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.State != StatePending {
		t.Errorf("failed edit must leave the request pending, got %s", got.State)
	}
}
