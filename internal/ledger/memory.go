package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository implements Repository with per-case mutexes. Used
// by tests and local worker runs; semantics match the Postgres
// implementation, including the optimistic sequence check.
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]*TransitionEntry
	locks   map[uuid.UUID]*sync.Mutex
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[uuid.UUID][]*TransitionEntry),
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// caseLock returns the mutex serializing writers of one case.
// Different cases never contend.
func (r *MemoryRepository) caseLock(caseID uuid.UUID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[caseID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[caseID] = lock
	}
	return lock
}

func (r *MemoryRepository) CloseAndAppend(ctx context.Context, caseID uuid.UUID, expectedSeq int, closeAt time.Time, next *TransitionEntry) error {
	lock := r.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	history := r.entries[caseID]
	r.mu.Unlock()

	currentSeq := 0
	if len(history) > 0 {
		currentSeq = history[len(history)-1].SequenceNo
	}
	if currentSeq != expectedSeq {
		return ErrConcurrentModification
	}
	if expectedSeq > 0 {
		current := history[len(history)-1]
		if !current.Open() {
			return ErrConcurrentModification
		}
		current.CloseAt(closeAt)
	}

	stored := *next
	r.mu.Lock()
	r.entries[caseID] = append(r.entries[caseID], &stored)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) LatestEntry(ctx context.Context, caseID uuid.UUID) (*TransitionEntry, error) {
	lock := r.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	history := r.entries[caseID]
	r.mu.Unlock()
	if len(history) == 0 {
		return nil, nil
	}
	entry := *history[len(history)-1]
	return &entry, nil
}

func (r *MemoryRepository) FullHistory(ctx context.Context, caseID uuid.UUID) ([]*TransitionEntry, error) {
	lock := r.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	history := r.entries[caseID]
	r.mu.Unlock()
	out := make([]*TransitionEntry, len(history))
	for i, e := range history {
		entry := *e
		out[i] = &entry
	}
	return out, nil
}

func (r *MemoryRepository) DeleteCaseEntries(ctx context.Context, caseID uuid.UUID) error {
	lock := r.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	delete(r.entries, caseID)
	r.mu.Unlock()
	return nil
}
