package approval

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// unreachableRedis returns a client whose every command fails, standing
// in for a Redis outage.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

// TestRedisOutageFallbackReads verifies a request saved while Redis is
// down stays visible through Get and PendingForThread: reads must consult
// the in-memory fallback instead of reporting not-found
func TestRedisOutageFallbackReads(t *testing.T) {
	store := NewRedisStore(unreachableRedis())
	ctx := context.Background()

	req := &Request{
		ID:       "req-1",
		ThreadID: "thread-1",
		Symbol:   "XAUUSD",
		Proposed: proposal(),
		Volume:   0.01,
		State:    StatePending,
	}
	if err := store.Save(ctx, req); err != nil {
		t.Fatalf("save during outage should fall back, got %v", err)
	}

	got, err := store.Get(ctx, "req-1")
	if err != nil {
		t.Fatalf("get during outage should fall back, got %v", err)
	}
	if got.ID != "req-1" || got.State != StatePending {
		t.Errorf("fallback returned wrong request: %+v", got)
	}

	pending, err := store.PendingForThread(ctx, "thread-1")
	if err != nil {
		t.Fatalf("pending lookup during outage should fall back, got %v", err)
	}
	if pending == nil || pending.ID != "req-1" {
		t.Fatal("pending request saved to the fallback must stay visible")
	}

	// Resolving through the fallback clears the thread
	req.State = StateRejected
	if err := store.Update(ctx, req); err != nil {
		t.Fatalf("update during outage should fall back, got %v", err)
	}
	pending, err = store.PendingForThread(ctx, "thread-1")
	if err != nil {
		t.Fatalf("pending lookup failed: %v", err)
	}
	if pending != nil {
		t.Errorf("resolved request must not stay pending, got %+v", pending)
	}
}

// TestRedisMissingKeyConsultsFallback pins the not-found semantics: a key
// absent from Redis is not authoritative, the fallback decides
func TestRedisMissingKeyConsultsFallback(t *testing.T) {
	store := NewRedisStore(unreachableRedis())
	ctx := context.Background()

	// Nothing saved anywhere: genuinely not found
	if _, err := store.Get(ctx, "no-such-id"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	pending, err := store.PendingForThread(ctx, "idle-thread")
	if err != nil || pending != nil {
		t.Errorf("idle thread should have no pending request, got %v %v", pending, err)
	}

	// Present only in the fallback: must be found
	req := &Request{ID: "req-2", ThreadID: "thread-2", Symbol: "XAUUSD", State: StatePending}
	if err := store.fallback.Save(ctx, req); err != nil {
		t.Fatalf("fallback save failed: %v", err)
	}
	got, err := store.Get(ctx, "req-2")
	if err != nil || got == nil {
		t.Fatalf("request in the fallback must be visible, got %v", err)
	}
	pending, err = store.PendingForThread(ctx, "thread-2")
	if err != nil || pending == nil {
		t.Fatalf("pending request in the fallback must be visible, got %v %v", pending, err)
	}
}
