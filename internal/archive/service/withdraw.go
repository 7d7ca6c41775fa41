package service

import (
	"context"
	"fmt"

	"custodia/internal/archive/models"
	"custodia/internal/archive/policy"
	"custodia/internal/audit"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/requestcontext"
)

// ToggleVisibility flips an archived record between public and admin
// visibility. Lowering is always corrective and unconditional; raising a
// file-based record back to public re-consults the policy gate against the
// asset's current usage. Advisory flags are untouched either way.
func (s *Service) ToggleVisibility(ctx context.Context, recordID id.RecordID) (*models.ArchiveRecord, error) {
	ctx, span := tracer.Start(ctx, "archive.toggle_visibility")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := rec.CanToggleVisibility(); err != nil {
		return nil, err
	}

	from := rec.Status
	if from == models.StatusArchivedAdmin {
		refCount, err := s.lookupReferenceCount(ctx, rec.AssetRef)
		if err != nil {
			return nil, err
		}
		gate := policy.NewGate(s.config.Snapshot())
		if block := gate.CheckVisibilityRaise(rec, refCount); block != nil {
			s.incrementPolicyBlock()
			s.incrementOperation("toggle_visibility", "blocked")
			return nil, policyBlocked(block)
		}
	}

	now := requestcontext.Now(ctx)
	updated, err := s.records.Execute(ctx, recordID,
		func(r *models.ArchiveRecord) error {
			if r.Status != from {
				return dErrors.New(dErrors.CodeConflict, "record changed while the request was processed")
			}
			return r.CanToggleVisibility()
		},
		func(r *models.ArchiveRecord) {
			r.ApplyVisibilityToggle(now)
		},
	)
	if err != nil {
		s.incrementOperation("toggle_visibility", "error")
		return nil, translateStoreErr(err, "failed to toggle visibility")
	}

	s.note(ctx, recordID, fmt.Sprintf("Visibility changed from %s to %s.", visibilityWord(from), visibilityWord(updated.Status)), actor)
	s.logAudit(ctx, audit.ActionVisibilityToggled,
		"record_id", updated.ID.String(),
		"asset_ref", updated.AssetRef.Key(),
		"status", string(updated.Status),
	)
	s.incrementOperation("toggle_visibility", "success")
	s.incrementTransition(updated.Status)

	return updated, nil
}

// UnarchiveResult carries the withdrawn record and an optional warning that
// archiving the asset again would currently be blocked.
type UnarchiveResult struct {
	Record           *models.ArchiveRecord
	ReExecuteWarning *policy.Block
}

// Unarchive withdraws the archived listing without touching the content. The
// record becomes ArchivedDeleted and its operational advisory flags are
// cleared along with the listing they annotated.
func (s *Service) Unarchive(ctx context.Context, recordID id.RecordID) (*UnarchiveResult, error) {
	ctx, span := tracer.Start(ctx, "archive.unarchive")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := rec.CanUnarchive(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	updated, err := s.records.Execute(ctx, recordID,
		func(r *models.ArchiveRecord) error {
			return r.CanUnarchive()
		},
		func(r *models.ArchiveRecord) {
			r.ApplyUnarchive(actor, now)
		},
	)
	if err != nil {
		s.incrementOperation("unarchive", "error")
		return nil, translateStoreErr(err, "failed to unarchive record")
	}

	var warning *policy.Block
	if refCount, err := s.lookupReferenceCount(ctx, updated.AssetRef); err == nil {
		gate := policy.NewGate(s.config.Snapshot())
		warning = gate.CheckReExecute(updated, refCount)
	} else if s.logger != nil {
		s.logger.WarnContext(ctx, "could not evaluate re-execute warning",
			"record_id", recordID,
			"error", err,
		)
	}

	s.note(ctx, recordID, "Record unarchived. The asset returns to normal delivery.", actor)
	s.logAudit(ctx, audit.ActionRecordUnarchived,
		"record_id", updated.ID.String(),
		"asset_ref", updated.AssetRef.Key(),
		"status", string(updated.Status),
	)
	s.incrementOperation("unarchive", "success")
	s.incrementTransition(updated.Status)

	return &UnarchiveResult{Record: updated, ReExecuteWarning: warning}, nil
}

// DeleteFile permanently removes the archived content, then marks the record
// deleted. The record itself is never removed; its advisory flags are kept
// because they explain why the content went away. A content store failure
// leaves the record untouched so the operation can be retried.
func (s *Service) DeleteFile(ctx context.Context, recordID id.RecordID) (*models.ArchiveRecord, error) {
	ctx, span := tracer.Start(ctx, "archive.delete_file")
	defer span.End()

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := rec.CanDeleteFile(); err != nil {
		return nil, err
	}

	if rec.FileName != "" {
		if err := s.content.Delete(ctx, rec.FileName); err != nil {
			s.incrementOperation("delete_file", "error")
			return nil, dErrors.Wrap(err, dErrors.CodeResource, "failed to delete archived content")
		}
	}

	now := requestcontext.Now(ctx)
	updated, err := s.records.Execute(ctx, recordID,
		func(r *models.ArchiveRecord) error {
			return r.CanDeleteFile()
		},
		func(r *models.ArchiveRecord) {
			r.ApplyFileDeletion(actor, now)
		},
	)
	if err != nil {
		s.incrementOperation("delete_file", "error")
		return nil, translateStoreErr(err, "failed to mark record deleted")
	}

	s.note(ctx, recordID, "Archived content permanently deleted.", actor)
	s.logAudit(ctx, audit.ActionFileDeleted,
		"record_id", updated.ID.String(),
		"asset_ref", updated.AssetRef.Key(),
		"status", string(updated.Status),
	)
	s.incrementOperation("delete_file", "success")
	s.incrementTransition(updated.Status)

	return updated, nil
}
