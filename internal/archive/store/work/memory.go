package work

import (
	"context"
	"fmt"
	"sync"
	"time"

	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// Clock abstracts time for lease tests.
type Clock func() time.Time

type memoryEntry struct {
	visibleAt time.Time
	attempts  int
}

// InMemory is the queue used by tests and single-process development runs.
type InMemory struct {
	mu      sync.Mutex
	entries map[id.RecordID]*memoryEntry
	clock   Clock
}

// InMemoryOption configures an InMemory queue.
type InMemoryOption func(*InMemory)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) InMemoryOption {
	return func(q *InMemory) {
		if clock != nil {
			q.clock = clock
		}
	}
}

// NewInMemory constructs an empty in-memory work queue.
func NewInMemory(opts ...InMemoryOption) *InMemory {
	q := &InMemory{
		entries: make(map[id.RecordID]*memoryEntry),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	return q
}

// Enqueue makes the record's checksum work immediately visible. Re-enqueueing
// a pending record keeps the existing entry.
func (q *InMemory) Enqueue(ctx context.Context, recordID id.RecordID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.entries[recordID]; exists {
		return nil
	}
	q.entries[recordID] = &memoryEntry{visibleAt: q.clock()}
	return nil
}

// Claim leases the oldest visible item for the given duration.
func (q *InMemory) Claim(ctx context.Context, lease time.Duration) (*Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock()
	var (
		bestID    id.RecordID
		bestEntry *memoryEntry
	)
	for recordID, entry := range q.entries {
		if entry.visibleAt.After(now) {
			continue
		}
		if bestEntry == nil || entry.visibleAt.Before(bestEntry.visibleAt) {
			bestID = recordID
			bestEntry = entry
		}
	}
	if bestEntry == nil {
		return nil, fmt.Errorf("no checksum work available: %w", sentinel.ErrNotFound)
	}

	bestEntry.visibleAt = now.Add(lease)
	bestEntry.attempts++
	return &Item{RecordID: bestID, Attempts: bestEntry.attempts}, nil
}

// Complete removes the item. Completing an unknown record is a no-op, which
// keeps retried deliveries harmless.
func (q *InMemory) Complete(ctx context.Context, recordID id.RecordID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.entries, recordID)
	return nil
}

// Pending counts all items, visible or leased.
func (q *InMemory) Pending(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.entries), nil
}
