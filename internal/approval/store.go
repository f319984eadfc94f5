package approval

import (
	"context"
	"sync"
)

// Store persists approval requests for the lifetime of a run. The core
// only requires the pending record to survive the human decision gap;
// durability across process restarts is the Redis store's concern.
type Store interface {
	Save(ctx context.Context, req *Request) error
	Get(ctx context.Context, id string) (*Request, error)
	Update(ctx context.Context, req *Request) error
	PendingForThread(ctx context.Context, threadID string) (*Request, error)
}

// MemoryStore is the default in-process store
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*Request
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[string]*Request)}
}

// Save stores a new request
func (s *MemoryStore) Save(ctx context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

// Get returns the request with the given ID, or ErrNotFound
func (s *MemoryStore) Get(ctx context.Context, id string) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

// Update overwrites an existing request
func (s *MemoryStore) Update(ctx context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; !ok {
		return ErrNotFound
	}
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

// PendingForThread returns the pending request owned by the thread, or
// nil when the thread has none
func (s *MemoryStore) PendingForThread(ctx context.Context, threadID string) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, req := range s.requests {
		if req.ThreadID == threadID && req.State == StatePending {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

var _ Store = (*MemoryStore)(nil)
