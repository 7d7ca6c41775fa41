// Package policy evaluates archive gating rules. This is pure domain logic -
// no I/O, no side effects. A Gate is built from one configuration snapshot and
// every rule inside an operation consults that same Gate, so a concurrent
// reconfiguration can never split a single operation across two policies.
package policy

import (
	"custodia/internal/archive/models"
	"custodia/internal/platform/config"
)

// Block explains a gate refusal. A nil *Block means the operation may proceed.
type Block struct {
	// ReferenceCount is the live reference count that triggered the block.
	ReferenceCount int
	Reason         string
}

// Gate applies reference gating and link-routing rules for one operation.
type Gate struct {
	snap config.Snapshot
}

// NewGate builds a Gate over the given snapshot.
func NewGate(snap config.Snapshot) Gate {
	return Gate{snap: snap}
}

// Snapshot returns the settings this gate evaluates against. Handlers use it
// to surface label configuration alongside gate results.
func (g Gate) Snapshot() config.Snapshot {
	return g.snap
}

// CheckCreateOrExecute decides whether an asset may be queued or archived.
// Rule chain:
//  1. Manual entries (page/external) bypass the gate entirely - they carry
//     no file and removing them from circulation affects nothing.
//  2. A referenced asset blocks unless references are explicitly allowed.
func (g Gate) CheckCreateOrExecute(assetType models.AssetType, referenceCount int) *Block {
	if assetType.IsManual() {
		return nil
	}
	if referenceCount > 0 && !g.snap.AllowWhileReferenced {
		return &Block{
			ReferenceCount: referenceCount,
			Reason:         "asset is referenced by live content",
		}
	}
	return nil
}

// CheckVisibilityRaise decides whether a visibility toggle may proceed. Only
// raising admin to public on a file-based asset can block; lowering is always
// allowed because it reduces exposure.
func (g Gate) CheckVisibilityRaise(record *models.ArchiveRecord, referenceCount int) *Block {
	if record.Status != models.StatusArchivedAdmin {
		return nil
	}
	return g.CheckCreateOrExecute(record.AssetType, referenceCount)
}

// CheckReExecute reports whether archiving this asset again would currently be
// blocked. Unarchive surfaces the result as a warning; it never prevents the
// withdrawal itself.
func (g Gate) CheckReExecute(record *models.ArchiveRecord, referenceCount int) *Block {
	return g.CheckCreateOrExecute(record.AssetType, referenceCount)
}

// LinkRoutingEnabled reports whether the content-delivery boundary should
// route asset links through the archive at all. The reference switch doubles
// as an enablement switch for deployments configured before the primary flag
// existed, so either one keeps routing on.
func (g Gate) LinkRoutingEnabled() bool {
	return g.snap.FeatureEnabled || g.snap.AllowWhileReferenced
}
