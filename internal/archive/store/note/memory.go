package note

import (
	"context"
	"sort"
	"sync"

	"custodia/internal/archive/models"
	id "custodia/pkg/domain"
)

// Error Contract:
// All store methods follow this error pattern:
// - Append never reports conflicts: notes are append-only observations
// - ListByRecord returns an empty slice for records without notes
// - Return wrapped errors with context for infrastructure failures
//
// The store deliberately exposes no update or delete. The audit trail's
// immutability is structural, not a matter of discipline at call sites.

// InMemory stores audit notes in memory for tests and development.
type InMemory struct {
	mu    sync.RWMutex
	notes map[id.RecordID][]*models.ArchiveNote
}

// NewInMemory constructs an empty in-memory note store.
func NewInMemory() *InMemory {
	return &InMemory{notes: make(map[id.RecordID][]*models.ArchiveNote)}
}

// Append adds a note to its record's trail.
func (s *InMemory) Append(ctx context.Context, note *models.ArchiveNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *note
	s.notes[note.RecordID] = append(s.notes[note.RecordID], &copied)
	return nil
}

// ListByRecord returns the record's notes in chronological order.
func (s *InMemory) ListByRecord(ctx context.Context, recordID id.RecordID) ([]*models.ArchiveNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.notes[recordID]
	out := make([]*models.ArchiveNote, len(stored))
	for i, n := range stored {
		copied := *n
		out[i] = &copied
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
