package record

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"custodia/internal/archive/models"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// InMemory stores archive records in memory for tests and development. It
// enforces the same contracts as the PostgreSQL store: one active record per
// asset reference, frozen write-once fields, atomic validate-then-mutate.
type InMemory struct {
	mu          sync.RWMutex
	records     map[id.RecordID]*models.ArchiveRecord
	activeByRef map[string]id.RecordID
}

// NewInMemory constructs an empty in-memory record store.
func NewInMemory() *InMemory {
	return &InMemory{
		records:     make(map[id.RecordID]*models.ArchiveRecord),
		activeByRef: make(map[string]id.RecordID),
	}
}

// CreateIfNoActive inserts a record unless its asset reference already holds
// an active one. The check and the insert are a single step under the store
// lock, so two concurrent creates for the same asset cannot both win.
func (s *InMemory) CreateIfNoActive(ctx context.Context, rec *models.ArchiveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("record id already exists: %w", sentinel.ErrConflict)
	}
	key := rec.AssetRef.Key()
	if rec.Status.IsActive() {
		if _, taken := s.activeByRef[key]; taken {
			return fmt.Errorf("asset already has an active archive record: %w", sentinel.ErrConflict)
		}
		s.activeByRef[key] = rec.ID
	}
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

// FindByID returns a copy of the record.
func (s *InMemory) FindByID(ctx context.Context, recordID id.RecordID) (*models.ArchiveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordID]
	if !ok {
		return nil, fmt.Errorf("archive record not found: %w", sentinel.ErrNotFound)
	}
	return cloneRecord(rec), nil
}

// FindActiveByAssetRef returns the record currently occupying the asset's
// active slot, if any.
func (s *InMemory) FindActiveByAssetRef(ctx context.Context, ref id.AssetRef) (*models.ArchiveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recordID, ok := s.activeByRef[ref.Key()]
	if !ok {
		return nil, fmt.Errorf("no active archive record for asset: %w", sentinel.ErrNotFound)
	}
	return cloneRecord(s.records[recordID]), nil
}

// HasVoidForAssetRef reports whether the asset ever had a record voided for
// an integrity violation. Voided records permanently poison legacy
// eligibility for the asset.
func (s *InMemory) HasVoidForAssetRef(ctx context.Context, ref id.AssetRef) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := ref.Key()
	for _, rec := range s.records {
		if rec.Status == models.StatusExemptionVoid && rec.AssetRef.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

// List returns copies of the matching records, newest first.
func (s *InMemory) List(ctx context.Context, filter models.RecordFilter) ([]*models.ArchiveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.ArchiveRecord, 0)
	for _, rec := range s.records {
		if filter.MatchesStatus(rec.Status) && filter.MatchesType(rec.AssetType) {
			matched = append(matched, cloneRecord(rec))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*models.ArchiveRecord{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Execute atomically loads a record, validates it, applies the mutation, and
// persists the result. The mutation is rejected if it touches frozen fields.
// Returns the updated record.
func (s *InMemory) Execute(
	ctx context.Context,
	recordID id.RecordID,
	validate func(*models.ArchiveRecord) error,
	mutate func(*models.ArchiveRecord),
) (*models.ArchiveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.records[recordID]
	if !ok {
		return nil, fmt.Errorf("archive record not found: %w", sentinel.ErrNotFound)
	}

	work := cloneRecord(cur)
	if err := validate(work); err != nil {
		return nil, err
	}
	mutate(work)
	if err := checkFrozenFields(cur, work); err != nil {
		return nil, err
	}

	key := cur.AssetRef.Key()
	if cur.Status.IsActive() && !work.Status.IsActive() {
		delete(s.activeByRef, key)
	}
	s.records[recordID] = work
	return cloneRecord(work), nil
}

// Delete removes a record after the validate callback approves it, all under
// the store lock. Used for queue removal, where the record never became a
// compliance decision.
func (s *InMemory) Delete(ctx context.Context, recordID id.RecordID, validate func(*models.ArchiveRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.records[recordID]
	if !ok {
		return fmt.Errorf("archive record not found: %w", sentinel.ErrNotFound)
	}
	if err := validate(cloneRecord(cur)); err != nil {
		return err
	}

	if cur.Status.IsActive() {
		delete(s.activeByRef, cur.AssetRef.Key())
	}
	delete(s.records, recordID)
	return nil
}
