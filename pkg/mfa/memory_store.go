package mfa

import (
	"context"
	"sync"
)

// MemoryStore implements Store in process memory.
// Records are cloned on the way in and out so callers cannot mutate stored state.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*EnrollmentState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*EnrollmentState),
	}
}

func (ms *MemoryStore) Get(ctx context.Context, userID string) (*EnrollmentState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	state, ok := ms.records[userID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return state.Clone(), nil
}

func (ms *MemoryStore) Save(ctx context.Context, state *EnrollmentState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if state == nil {
		return ErrNilState
	}
	if state.UserID == "" {
		return ErrEmptyUserID
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.records[state.UserID] = state.Clone()
	return nil
}

func (ms *MemoryStore) Delete(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	_, ok := ms.records[userID]
	delete(ms.records, userID)
	return ok, nil
}

// Len returns the number of stored records.
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.records)
}
