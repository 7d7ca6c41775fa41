// Package work implements the deferred checksum queue. Files above the
// async threshold are not hashed during execution; a work item per record
// waits here until a background consumer claims it.
//
// Delivery is at-least-once. Claiming leases the item by pushing its
// visibility forward; a consumer that crashes mid-hash simply lets the lease
// expire and the item is claimable again. Completion deletes the item.
// Duplicate delivery is harmless because the consumer skips records that
// already carry a checksum.
package work

import (
	id "custodia/pkg/domain"
)

// Item is one unit of deferred checksum work.
type Item struct {
	RecordID id.RecordID
	Attempts int
}

// Error Contract:
// All queue methods follow this error pattern:
// - Enqueue is idempotent: re-enqueueing a pending record is a no-op
// - Claim returns an error wrapping sentinel.ErrNotFound when no item is
//   currently visible
// - Return wrapped errors with context for infrastructure failures
