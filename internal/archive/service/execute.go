package service

import (
	"context"
	"errors"
	"fmt"

	"custodia/internal/archive/models"
	"custodia/internal/archive/policy"
	"custodia/internal/audit"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

// Execute turns a queued record into the active compliance decision. The
// asset's usage and the policy gate are re-validated, the source content is
// hashed (or the hash deferred for oversized files), and the classification
// snapshot is frozen onto the record. On failure the record stays Queued with
// a flag describing what stopped the execution, so the operation is
// retryable once the condition clears.
func (s *Service) Execute(ctx context.Context, recordID id.RecordID, visibility models.Status) (*models.ArchiveRecord, error) {
	ctx, span := tracer.Start(ctx, "archive.execute")
	defer span.End()

	if !visibility.IsArchived() {
		return nil, dErrors.New(dErrors.CodeValidation, "visibility must be public or admin")
	}
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := rec.CanExecute(visibility); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	snap := s.config.Snapshot()
	gate := policy.NewGate(snap)

	refCount, err := s.lookupReferenceCount(ctx, rec.AssetRef)
	if err != nil {
		return nil, err
	}
	if block := gate.CheckCreateOrExecute(rec.AssetType, refCount); block != nil {
		s.flagQueued(ctx, recordID, func(r *models.ArchiveRecord) {
			r.UsageDetected = true
			r.UpdatedAt = now
		})
		s.incrementPolicyBlock()
		s.incrementOperation("execute", "blocked")
		if s.logger != nil {
			s.logger.InfoContext(ctx, "archive execution blocked by policy",
				"record_id", recordID,
				"reference_count", block.ReferenceCount,
			)
		}
		return nil, policyBlocked(block)
	}

	sum := ""
	deferred := false
	if !rec.IsManual() {
		if rec.FileSizeBytes > snap.ChecksumAsyncThreshold {
			deferred = true
		} else {
			sum, err = s.engine.Calculate(ctx, rec)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					s.flagQueued(ctx, recordID, func(r *models.ArchiveRecord) {
						r.FileMissing = true
						r.UpdatedAt = now
					})
					s.incrementOperation("execute", "error")
					return nil, dErrors.New(dErrors.CodeResource, "archive source could not be resolved")
				}
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute checksum")
			}
		}
	}

	cls, err := s.classifier.Classify(ctx, rec.AssetRef, now, snap.ComplianceDeadline)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to classify record")
	}

	updated, err := s.records.Execute(ctx, recordID,
		func(r *models.ArchiveRecord) error {
			return r.CanExecute(visibility)
		},
		func(r *models.ArchiveRecord) {
			r.ApplyExecution(models.Execution{
				Visibility:      visibility,
				Actor:           actor,
				Checksum:        sum,
				ReferenceCount:  refCount,
				LateArchive:     cls.LateArchive,
				PriorVoidExists: cls.PriorVoidExists,
			}, now)
		},
	)
	if err != nil {
		s.incrementOperation("execute", "error")
		return nil, translateStoreErr(err, "failed to execute archive record")
	}

	if deferred {
		if err := s.queue.Enqueue(ctx, recordID); err != nil && s.logger != nil {
			// the next sweep re-enqueues archived records without a checksum
			s.logger.ErrorContext(ctx, "failed to enqueue checksum work",
				"record_id", recordID,
				"error", err,
			)
		}
		s.incrementChecksumDeferral()
	}

	text := fmt.Sprintf("Archive executed with %s visibility.", visibilityWord(updated.Status))
	if deferred {
		text += " Checksum computation deferred to the background queue."
	}
	s.note(ctx, recordID, text, actor)
	s.logAudit(ctx, audit.ActionArchiveExecuted,
		"record_id", updated.ID.String(),
		"asset_ref", updated.AssetRef.Key(),
		"status", string(updated.Status),
	)
	s.incrementOperation("execute", "success")
	s.incrementTransition(updated.Status)

	return updated, nil
}

// flagQueued marks a still-queued record with what stopped its execution.
// The flag only buys visibility, so a failed write is logged, not returned.
func (s *Service) flagQueued(ctx context.Context, recordID id.RecordID, mark func(*models.ArchiveRecord)) {
	_, err := s.records.Execute(ctx, recordID,
		func(r *models.ArchiveRecord) error {
			if r.Status != models.StatusQueued {
				return dErrors.New(dErrors.CodeInvariantViolation, "record left the queue")
			}
			return nil
		},
		mark,
	)
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to flag queued record",
			"record_id", recordID,
			"error", err,
		)
	}
}

// visibilityWord names an archived status for note text.
func visibilityWord(status models.Status) string {
	if status == models.StatusArchivedAdmin {
		return "admin"
	}
	return "public"
}

// translateStoreErr maps store sentinels onto domain codes. Coded errors from
// lifecycle callbacks pass through untouched.
func translateStoreErr(err error, fallback string) error {
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "archive record not found")
	}
	if errors.Is(err, sentinel.ErrFrozenField) {
		return dErrors.Wrap(err, dErrors.CodeImmutable, "attempted overwrite of a write-once field")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, fallback)
}
