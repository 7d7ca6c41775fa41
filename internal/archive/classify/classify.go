// Package classify stamps the compliance classification of a record at
// execution time. This is pure domain logic plus one store lookup - the stamp
// is computed once, stored on the record, and never recomputed, so a later
// deadline reconfiguration cannot change how a past execution was classified.
package classify

import (
	"context"
	"fmt"
	"time"

	"custodia/internal/platform/config"
	id "custodia/pkg/domain"
)

// Classification is the immutable compliance stamp computed at execution.
type Classification struct {
	// LateArchive marks a General record: archived after the compliance
	// deadline, or re-archived after a prior exemption was voided.
	LateArchive bool

	// PriorVoidExists records that a voided exemption for the same asset
	// forced the General classification regardless of date.
	PriorVoidExists bool
}

// IsLegacy reports whether the stamp grants the legacy exemption.
func (c Classification) IsLegacy() bool {
	return !c.LateArchive
}

// At computes the stamp for an execution happening at instant under the given
// deadline. A zero deadline falls back to the fixed default. A prior voided
// exemption forces General classification regardless of date.
func At(instant, deadline time.Time, priorVoid bool) Classification {
	if deadline.IsZero() {
		deadline = config.DefaultComplianceDeadline
	}
	c := Classification{LateArchive: instant.After(deadline)}
	if priorVoid {
		c.LateArchive = true
		c.PriorVoidExists = true
	}
	return c
}

// VoidLookup answers whether an asset already has a voided exemption record.
type VoidLookup interface {
	HasVoidForAssetRef(ctx context.Context, ref id.AssetRef) (bool, error)
}

// Engine computes classification stamps, consulting the record store for
// prior voided exemptions. The voided record itself is never touched.
type Engine struct {
	voids VoidLookup
}

func NewEngine(voids VoidLookup) *Engine {
	return &Engine{voids: voids}
}

// Classify stamps an execution of the given asset at instant.
func (e *Engine) Classify(ctx context.Context, ref id.AssetRef, instant, deadline time.Time) (Classification, error) {
	priorVoid, err := e.voids.HasVoidForAssetRef(ctx, ref)
	if err != nil {
		return Classification{}, fmt.Errorf("check prior void: %w", err)
	}
	return At(instant, deadline, priorVoid), nil
}
