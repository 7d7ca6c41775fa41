package service

import (
	"context"
	"errors"
	"fmt"

	"custodia/internal/archive/models"
	"custodia/internal/archive/policy"
	"custodia/internal/archive/reconcile"
	"custodia/internal/audit"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
)

// loadRecord fetches a record, translating the store sentinel.
func (s *Service) loadRecord(ctx context.Context, recordID id.RecordID) (*models.ArchiveRecord, error) {
	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "archive record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load archive record")
	}
	return rec, nil
}

// GetRecord returns one record for the management surface, cooperatively
// reconciled against its backing content first. A failed reconciliation
// serves the stored state rather than failing the read.
func (s *Service) GetRecord(ctx context.Context, recordID id.RecordID) (*models.ArchiveRecord, error) {
	ctx, span := tracer.Start(ctx, "archive.get_record")
	defer span.End()

	rec, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if s.reconciler == nil {
		return rec, nil
	}

	s.incrementReconcileRun("read")
	refreshed, _, rErr := s.reconciler.Reconcile(ctx, rec)
	if rErr != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "cooperative reconciliation failed",
				"record_id", recordID,
				"error", rErr,
			)
		}
		return rec, nil
	}
	if refreshed == nil {
		// A queued record whose file vanished was removed entirely.
		return nil, dErrors.New(dErrors.CodeNotFound, "archive record not found")
	}
	return refreshed, nil
}

// ListRecords returns records matching the filter, cooperatively reconciled.
func (s *Service) ListRecords(ctx context.Context, filter models.RecordFilter) ([]*models.ArchiveRecord, error) {
	ctx, span := tracer.Start(ctx, "archive.list_records")
	defer span.End()

	recs, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list archive records")
	}
	if s.reconciler == nil || len(recs) == 0 {
		return recs, nil
	}

	s.incrementReconcileRun("read")
	changed := false
	for _, rec := range recs {
		_, outcome, rErr := s.reconciler.Reconcile(ctx, rec)
		if rErr != nil {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "cooperative reconciliation failed",
					"record_id", rec.ID,
					"error", rErr,
				)
			}
			continue
		}
		if outcome != reconcile.OutcomeSkipped && outcome != reconcile.OutcomeUnchanged {
			changed = true
		}
	}
	if !changed {
		return recs, nil
	}
	recs, err = s.records.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list archive records")
	}
	return recs, nil
}

// ReferenceDetail tells the delivery boundary how a reference to an archived
// asset should be treated.
type ReferenceDetail struct {
	RecordID          id.RecordID   `json:"record_id"`
	Status            models.Status `json:"status"`
	ShowArchivedLabel bool          `json:"show_archived_label"`
	ArchivedLabelText string        `json:"archived_label_text,omitempty"`
}

// DetailReference resolves whether a reference should route to the archive.
// A nil detail means the reference is left alone: link routing is disabled,
// the category is ineligible, or the asset has no actively archived record.
func (s *Service) DetailReference(ctx context.Context, raw string) (*ReferenceDetail, error) {
	ctx, span := tracer.Start(ctx, "archive.detail_reference")
	defer span.End()

	detail, err := s.detailReference(ctx, raw)
	if err == nil {
		if detail != nil {
			s.incrementOperation("detail_reference", "routed")
		} else {
			s.incrementOperation("detail_reference", "passthrough")
		}
	}
	return detail, err
}

func (s *Service) detailReference(ctx context.Context, raw string) (*ReferenceDetail, error) {
	ref, err := id.ParseAssetRef(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "unparseable asset reference")
	}

	snap := s.config.Snapshot()
	if !policy.NewGate(snap).LinkRoutingEnabled() {
		return nil, nil
	}

	if ref.IsManaged() {
		// Ineligible categories never route. A reference the directory no
		// longer knows falls through: the record alone decides.
		if entry, err := s.catalog.Lookup(ctx, ref); err == nil && !entry.Category.Routable() {
			return nil, nil
		}
	}

	rec, err := s.records.FindActiveByAssetRef(ctx, ref)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve reference")
	}
	if !rec.Status.IsArchived() {
		// Queued records keep their live delivery until executed.
		return nil, nil
	}

	return &ReferenceDetail{
		RecordID:          rec.ID,
		Status:            rec.Status,
		ShowArchivedLabel: snap.ShowArchivedLabel,
		ArchivedLabelText: snap.ArchivedLabelText,
	}, nil
}

// RunReconciliation sweeps every non-terminal record on demand. Exactly one
// sweep runs at a time; a second call while one is in flight conflicts.
func (s *Service) RunReconciliation(ctx context.Context) (reconcile.Counters, error) {
	ctx, span := tracer.Start(ctx, "archive.run_reconciliation")
	defer span.End()

	if s.reconciler == nil {
		return reconcile.Counters{}, dErrors.New(dErrors.CodeInternal, "reconciliation is not configured")
	}
	if _, err := requireActor(ctx); err != nil {
		return reconcile.Counters{}, err
	}

	counters, err := s.reconciler.RunSweep(ctx)
	if err != nil {
		return counters, err
	}

	s.logAudit(ctx, audit.ActionSweepCompleted,
		"detail", fmt.Sprintf("examined %d, updated %d, queue removed %d, exemptions voided %d, files deleted %d, errors %d",
			counters.Examined, counters.Updated, counters.QueueRemoved, counters.ExemptionsVoided, counters.FilesDeleted, counters.Errors),
	)
	return counters, nil
}
