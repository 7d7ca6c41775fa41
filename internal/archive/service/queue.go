package service

import (
	"context"
	"errors"
	"fmt"

	"custodia/internal/archive/models"
	"custodia/internal/audit"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

// Queue creates a Queued record for a file-based asset. The asset's file
// metadata is snapshotted from the directory at queue time. A currently
// referenced asset is queued anyway; blocking is deferred to Execute, and the
// usage is noted on the trail instead.
func (s *Service) Queue(
	ctx context.Context,
	assetRef id.AssetRef,
	reason models.Reason,
	reasonOther string,
	publicDescription string,
	internalNotes string,
) (*models.ArchiveRecord, error) {
	ctx, span := tracer.Start(ctx, "archive.queue")
	defer span.End()

	if assetRef.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "asset reference is required")
	}
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.catalog.Lookup(ctx, assetRef)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "asset not found in the directory")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up asset")
	}

	assetType, ok := entry.Category.AssetType()
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeValidation, "category %q is not eligible for archiving", entry.Category)
	}
	if assetType.IsManual() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "category %q is registered through manual registration, not queued from the directory", entry.Category)
	}

	now := requestcontext.Now(ctx)
	rec, err := models.NewRecord(
		id.NewRecordID(),
		assetRef,
		assetType,
		entry.FileName,
		entry.MimeType,
		entry.SizeBytes,
		entry.IsPrivate,
		reason,
		reasonOther,
		publicDescription,
		internalNotes,
		actor,
		now,
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.create(ctx, rec); err != nil {
		return nil, err
	}

	if entry.ReferenceCount > 0 {
		s.note(ctx, rec.ID, fmt.Sprintf("Asset is currently referenced by %d live item(s).", entry.ReferenceCount), actor)
	}
	s.logAudit(ctx, audit.ActionRecordQueued,
		"record_id", rec.ID.String(),
		"asset_ref", rec.AssetRef.Key(),
		"status", string(rec.Status),
	)
	s.incrementOperation("queue", "success")
	s.incrementTransition(models.StatusQueued)

	return rec, nil
}

// RegisterManual creates a Queued record for a page or external resource the
// platform holds no file for. The directory is consulted only for the usage
// note on managed references; external URLs are taken as given.
func (s *Service) RegisterManual(
	ctx context.Context,
	assetRef id.AssetRef,
	assetType models.AssetType,
	reason models.Reason,
	reasonOther string,
	publicDescription string,
	internalNotes string,
) (*models.ArchiveRecord, error) {
	ctx, span := tracer.Start(ctx, "archive.register_manual")
	defer span.End()

	if assetRef.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "asset reference is required")
	}
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	rec, err := models.NewManualRecord(
		id.NewRecordID(),
		assetRef,
		assetType,
		reason,
		reasonOther,
		publicDescription,
		internalNotes,
		actor,
		now,
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.create(ctx, rec); err != nil {
		return nil, err
	}

	if assetRef.IsManaged() {
		if count, err := s.lookupReferenceCount(ctx, assetRef); err == nil && count > 0 {
			s.note(ctx, rec.ID, fmt.Sprintf("Asset is currently referenced by %d live item(s).", count), actor)
		}
	}
	s.logAudit(ctx, audit.ActionManualRegistered,
		"record_id", rec.ID.String(),
		"asset_ref", rec.AssetRef.Key(),
		"status", string(rec.Status),
	)
	s.incrementOperation("register_manual", "success")
	s.incrementTransition(models.StatusQueued)

	return rec, nil
}

// create persists a new queued record, translating the single-active-record
// constraint into a conflict the caller can act on.
func (s *Service) create(ctx context.Context, rec *models.ArchiveRecord) error {
	if err := s.records.CreateIfNoActive(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "an active archive record already exists for this asset")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create archive record")
	}
	return nil
}

// RemoveFromQueue hard-deletes a queued record. The record never became a
// compliance decision, so nothing is retained.
func (s *Service) RemoveFromQueue(ctx context.Context, recordID id.RecordID) error {
	ctx, span := tracer.Start(ctx, "archive.remove_from_queue")
	defer span.End()

	if _, err := requireActor(ctx); err != nil {
		return err
	}

	err := s.records.Delete(ctx, recordID, func(r *models.ArchiveRecord) error {
		return r.CanRemoveFromQueue()
	})
	if err != nil {
		return translateStoreErr(err, "failed to remove record from queue")
	}

	s.logAudit(ctx, audit.ActionQueueRemoved,
		"record_id", recordID.String(),
	)
	s.incrementOperation("remove_from_queue", "success")
	return nil
}
