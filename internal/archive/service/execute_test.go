package service

import (
	"context"
	"time"

	"custodia/internal/archive/models"
	"custodia/internal/audit"
	"custodia/internal/platform/config"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// =============================================================================
// Execute Tests
// =============================================================================

func (s *ServiceSuite) TestExecute() {
	s.Run("archives public with an inline checksum", func() {
		data := []byte("final quarterly numbers")
		rec := s.queued("q4.pdf", data)

		updated, err := s.service.Execute(s.ctx, rec.ID, models.StatusArchivedPublic)
		s.Require().NoError(err)
		s.Equal(models.StatusArchivedPublic, updated.Status)
		s.Equal(digest(data), updated.FileChecksum)
		s.Require().NotNil(updated.ClassificationDate)
		s.Equal(s.now, *updated.ClassificationDate)
		s.True(updated.IsLegacy())
		s.False(updated.ArchivedWhileInUse)

		pending, err := s.queue.Pending(s.ctx)
		s.Require().NoError(err)
		s.Zero(pending)

		trail := s.trail(rec.ID)
		s.Require().Len(trail, 1)
		s.Equal("Archive executed with public visibility.", trail[0].Text)

		event := s.lastEvent()
		s.Equal(audit.ActionArchiveExecuted, event.Action)
		s.Equal("archived_public", event.Status)
	})

	s.Run("archives admin visibility", func() {
		rec := s.queued("internal.pdf", []byte("internal"))

		updated, err := s.service.Execute(s.ctx, rec.ID, models.StatusArchivedAdmin)
		s.Require().NoError(err)
		s.Equal(models.StatusArchivedAdmin, updated.Status)

		trail := s.trail(rec.ID)
		s.Require().Len(trail, 1)
		s.Equal("Archive executed with admin visibility.", trail[0].Text)
	})

	s.Run("oversized file defers the checksum", func() {
		s.cfg.snap.ChecksumAsyncThreshold = 8
		defer func() { s.cfg.snap.ChecksumAsyncThreshold = config.DefaultChecksumAsyncThreshold }()

		rec := s.queued("large.pdf", []byte("well over eight bytes"))
		updated, err := s.service.Execute(s.ctx, rec.ID, models.StatusArchivedPublic)
		s.Require().NoError(err)
		s.Equal(models.StatusArchivedPublic, updated.Status)
		s.False(updated.HasChecksum())

		pending, err := s.queue.Pending(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, pending)

		trail := s.trail(rec.ID)
		s.Require().Len(trail, 1)
		s.Contains(trail[0].Text, "deferred to the background queue")
	})

	s.Run("policy block flags usage and keeps the record queued", func() {
		ref := s.catalogFile("cited.pdf", []byte("cited"), 2)
		rec, err := s.service.Queue(s.ctx, ref, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)

		_, err = s.service.Execute(s.ctx, rec.ID, models.StatusArchivedPublic)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyBlocked))
		s.Equal(2, dErrors.DetailsOf(err)["reference_count"])

		flagged := s.reload(rec.ID)
		s.Equal(models.StatusQueued, flagged.Status)
		s.True(flagged.UsageDetected)
	})

	s.Run("blocked execution succeeds once references clear", func() {
		ref := s.catalogFile("retried.pdf", []byte("retried"), 1)
		rec, err := s.service.Queue(s.ctx, ref, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)

		_, err = s.service.Execute(s.ctx, rec.ID, models.StatusArchivedPublic)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyBlocked))

		s.catalog.SetReferenceCount(ref, 0)
		updated, err := s.service.Execute(s.ctx, rec.ID, models.StatusArchivedPublic)
		s.Require().NoError(err)
		s.Equal(models.StatusArchivedPublic, updated.Status)
		s.False(updated.UsageDetected)
	})

	s.Run("allowed references archive while in use", func() {
		s.cfg.snap.AllowWhileReferenced = true
		defer func() { s.cfg.snap.AllowWhileReferenced = false }()

		ref := s.catalogFile("inuse.pdf", []byte("in use"), 3)
		rec, err := s.service.Queue(s.ctx, ref, models.ReasonSuperseded, "", "", "")
		s.Require().NoError(err)

		updated, err := s.service.Execute(s.ctx, rec.ID, models.StatusArchivedPublic)
		s.Require().NoError(err)
		s.True(updated.ArchivedWhileInUse)
		s.Equal(3, updated.UsageCountAtArchive)
		s.True(updated.UsageDetected)
	})

	s.Run("missing content flags the record and stays queued", func() {
		ref := s.catalogFile("ghost.pdf", nil, 0)
		rec, err := s.service.Queue(s.ctx, ref, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)

		_, err = s.service.Execute(s.ctx, rec.ID, models.StatusArchivedPublic)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeResource))

		flagged := s.reload(rec.ID)
		s.Equal(models.StatusQueued, flagged.Status)
		s.True(flagged.FileMissing)
	})

	s.Run("execution after the deadline is classified general", func() {
		s.cfg.snap.ComplianceDeadline = s.now.Add(-time.Hour)
		defer func() { s.cfg.snap.ComplianceDeadline = s.deadline }()

		rec := s.queued("late.pdf", []byte("late"))
		updated, err := s.service.Execute(s.ctx, rec.ID, models.StatusArchivedPublic)
		s.Require().NoError(err)
		s.True(updated.LateArchive)
		s.False(updated.PriorVoidExists)
		s.False(updated.IsLegacy())
	})

	s.Run("prior voided exemption forces general classification", func() {
		rec := s.archived("voided.pdf", []byte("voided"))
		_, err := s.records.Execute(s.ctx, rec.ID,
			func(r *models.ArchiveRecord) error { return r.CanVoidExemption() },
			func(r *models.ArchiveRecord) { r.ApplyExemptionVoid(s.now) },
		)
		s.Require().NoError(err)

		again, err := s.service.Queue(s.ctx, rec.AssetRef, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)

		updated, err := s.service.Execute(s.ctx, again.ID, models.StatusArchivedPublic)
		s.Require().NoError(err)
		s.True(updated.LateArchive)
		s.True(updated.PriorVoidExists)
	})

	s.Run("manual record archives without a checksum", func() {
		before, err := s.queue.Pending(s.ctx)
		s.Require().NoError(err)

		ref := s.externalRef("https://example.org/manual")
		rec, err := s.service.RegisterManual(s.ctx, ref, models.AssetTypeExternal, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)

		updated, err := s.service.Execute(s.ctx, rec.ID, models.StatusArchivedPublic)
		s.Require().NoError(err)
		s.Equal(models.StatusArchivedPublic, updated.Status)
		s.False(updated.HasChecksum())

		after, err := s.queue.Pending(s.ctx)
		s.Require().NoError(err)
		s.Equal(before, after)
	})

	s.Run("non-archived visibility is rejected", func() {
		rec := s.queued("target.pdf", []byte("target"))
		_, err := s.service.Execute(s.ctx, rec.ID, models.StatusQueued)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("already archived record is rejected", func() {
		rec := s.archived("done.pdf", []byte("done"))
		_, err := s.service.Execute(s.ctx, rec.ID, models.StatusArchivedAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("missing record returns not found", func() {
		_, err := s.service.Execute(s.ctx, id.NewRecordID(), models.StatusArchivedPublic)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("missing actor is unauthorized", func() {
		rec := s.queued("authless.pdf", []byte("authless"))
		_, err := s.service.Execute(context.Background(), rec.ID, models.StatusArchivedPublic)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
