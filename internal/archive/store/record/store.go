package record

import (
	"fmt"

	"custodia/internal/archive/models"
	"custodia/pkg/platform/sentinel"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return errors wrapping sentinel.ErrNotFound when the record does not exist
// - Return errors wrapping sentinel.ErrConflict when the asset already has an
//   active record
// - Return errors wrapping sentinel.ErrFrozenField when a mutation touches a
//   write-once field that is already set
// - Return wrapped errors with context for infrastructure failures

// checkFrozenFields is the single write path's enforcement of the write-once
// fields. Aggregates reject the same mutations earlier with friendlier
// errors; the store check holds even for callers that bypass them.
func checkFrozenFields(cur, next *models.ArchiveRecord) error {
	if next.ID != cur.ID || next.AssetRef.Key() != cur.AssetRef.Key() {
		return fmt.Errorf("record identity is frozen: %w", sentinel.ErrFrozenField)
	}
	if !next.CreatedAt.Equal(cur.CreatedAt) {
		return fmt.Errorf("creation timestamp is frozen: %w", sentinel.ErrFrozenField)
	}
	if cur.FileChecksum != "" && next.FileChecksum != cur.FileChecksum {
		return fmt.Errorf("file checksum is frozen once set: %w", sentinel.ErrFrozenField)
	}
	if cur.ClassificationDate != nil {
		if next.ClassificationDate == nil || !next.ClassificationDate.Equal(*cur.ClassificationDate) {
			return fmt.Errorf("classification date is frozen once set: %w", sentinel.ErrFrozenField)
		}
		if next.ArchivedWhileInUse != cur.ArchivedWhileInUse || next.UsageCountAtArchive != cur.UsageCountAtArchive {
			return fmt.Errorf("usage snapshot is frozen once classified: %w", sentinel.ErrFrozenField)
		}
	}
	return nil
}

// cloneRecord deep-copies a record so callers never share aggregate state
// with the store.
func cloneRecord(r *models.ArchiveRecord) *models.ArchiveRecord {
	c := *r
	if r.ClassificationDate != nil {
		t := *r.ClassificationDate
		c.ClassificationDate = &t
	}
	if r.DeletedDate != nil {
		t := *r.DeletedDate
		c.DeletedDate = &t
	}
	return &c
}
