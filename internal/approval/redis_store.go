// Redis-backed approval request store. Pending requests are shared with
// a standby process and survive restarts. When Redis is unavailable the
// store falls back to the in-memory map so a human decision is never
// lost mid-run.
package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// RequestKeyPrefix is the prefix for individual request keys.
	// Format: sevenms:approval:{requestID}
	RequestKeyPrefix = "sevenms:approval"

	// ThreadKeyPrefix maps a thread ID to its pending request ID.
	// Format: sevenms:approval:thread:{threadID}
	ThreadKeyPrefix = "sevenms:approval:thread"

	// RequestTTL bounds how long an unresolved request is retained.
	// Decisions usually arrive within hours; keep a generous margin.
	RequestTTL = 72 * time.Hour
)

// RedisStore persists approval requests in Redis with an in-memory
// fallback
type RedisStore struct {
	client   *redis.Client
	fallback *MemoryStore
}

// NewRedisStore creates a store backed by the given Redis client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:   client,
		fallback: NewMemoryStore(),
	}
}

func requestKey(id string) string {
	return fmt.Sprintf("%s:%s", RequestKeyPrefix, id)
}

func threadKey(threadID string) string {
	return fmt.Sprintf("%s:%s", ThreadKeyPrefix, threadID)
}

// Save stores a new request and indexes it by thread
func (s *RedisStore) Save(ctx context.Context, req *Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, requestKey(req.ID), data, RequestTTL)
	if req.State == StatePending {
		pipe.Set(ctx, threadKey(req.ThreadID), req.ID, RequestTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		// Redis down: keep trading on the in-memory fallback
		return s.fallback.Save(ctx, req)
	}

	// Mirror into the fallback so reads survive a later Redis outage
	return s.fallback.Save(ctx, req)
}

// Get returns the request with the given ID
func (s *RedisStore) Get(ctx context.Context, id string) (*Request, error) {
	data, err := s.client.Get(ctx, requestKey(id)).Bytes()
	if err == redis.Nil {
		// Missing from Redis is not authoritative: a request saved during
		// an outage exists only in the fallback
		return s.fallback.Get(ctx, id)
	}
	if err != nil {
		return s.fallback.Get(ctx, id)
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request %s: %w", id, err)
	}
	return &req, nil
}

// Update overwrites an existing request and clears the thread index when
// the request leaves the pending state
func (s *RedisStore) Update(ctx context.Context, req *Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, requestKey(req.ID), data, RequestTTL)
	if req.State.Terminal() {
		pipe.Del(ctx, threadKey(req.ThreadID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return s.fallback.Update(ctx, req)
	}

	_ = s.fallback.Save(ctx, req)
	return nil
}

// PendingForThread returns the thread's pending request, or nil
func (s *RedisStore) PendingForThread(ctx context.Context, threadID string) (*Request, error) {
	id, err := s.client.Get(ctx, threadKey(threadID)).Result()
	if err == redis.Nil {
		return s.fallback.PendingForThread(ctx, threadID)
	}
	if err != nil {
		return s.fallback.PendingForThread(ctx, threadID)
	}

	req, err := s.Get(ctx, id)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if req.State != StatePending {
		return nil, nil
	}
	return req, nil
}

var _ Store = (*RedisStore)(nil)
