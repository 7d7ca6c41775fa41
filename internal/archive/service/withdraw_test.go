package service

import (
	"context"
	"errors"
	"time"

	"custodia/internal/archive/models"
	"custodia/internal/audit"
	"custodia/internal/content"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
)

// =============================================================================
// Visibility Toggle Tests
// =============================================================================

func (s *ServiceSuite) TestToggleVisibility() {
	s.Run("flips public to admin and back", func() {
		rec := s.archived("flip.pdf", []byte("flip"))

		lowered, err := s.service.ToggleVisibility(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusArchivedAdmin, lowered.Status)

		raised, err := s.service.ToggleVisibility(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusArchivedPublic, raised.Status)

		trail := s.trail(rec.ID)
		s.Require().Len(trail, 3)
		s.Equal("Visibility changed from public to admin.", trail[1].Text)
		s.Equal("Visibility changed from admin to public.", trail[2].Text)
		s.Equal(audit.ActionVisibilityToggled, s.lastEvent().Action)
	})

	s.Run("advisory flags survive the toggle", func() {
		s.cfg.snap.AllowWhileReferenced = true
		defer func() { s.cfg.snap.AllowWhileReferenced = false }()

		ref := s.catalogFile("flagged.pdf", []byte("flagged"), 2)
		rec, err := s.service.Queue(s.ctx, ref, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)
		archived, err := s.service.Execute(s.ctx, rec.ID, models.StatusArchivedPublic)
		s.Require().NoError(err)
		s.True(archived.UsageDetected)

		lowered, err := s.service.ToggleVisibility(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.True(lowered.UsageDetected)
	})

	s.Run("raising admin to public re-consults the gate", func() {
		rec := s.queued("guarded.pdf", []byte("guarded"))
		_, err := s.service.Execute(s.ctx, rec.ID, models.StatusArchivedAdmin)
		s.Require().NoError(err)

		s.catalog.SetReferenceCount(rec.AssetRef, 2)
		_, err = s.service.ToggleVisibility(s.ctx, rec.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyBlocked))
		s.Equal(models.StatusArchivedAdmin, s.reload(rec.ID).Status)
	})

	s.Run("lowering public to admin ignores references", func() {
		s.cfg.snap.AllowWhileReferenced = true
		ref := s.catalogFile("exposed.pdf", []byte("exposed"), 4)
		rec, err := s.service.Queue(s.ctx, ref, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)
		_, err = s.service.Execute(s.ctx, rec.ID, models.StatusArchivedPublic)
		s.Require().NoError(err)
		s.cfg.snap.AllowWhileReferenced = false

		lowered, err := s.service.ToggleVisibility(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusArchivedAdmin, lowered.Status)
	})

	s.Run("queued record cannot toggle", func() {
		rec := s.queued("early.pdf", []byte("early"))
		_, err := s.service.ToggleVisibility(s.ctx, rec.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("deleted record rejects all changes", func() {
		rec := s.archived("gone.pdf", []byte("gone"))
		_, err := s.service.Unarchive(s.ctx, rec.ID)
		s.Require().NoError(err)

		_, err = s.service.ToggleVisibility(s.ctx, rec.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTerminalState))
	})
}

// =============================================================================
// Unarchive Tests
// =============================================================================

func (s *ServiceSuite) TestUnarchive() {
	s.Run("withdraws the listing and clears advisory flags", func() {
		s.cfg.snap.AllowWhileReferenced = true
		defer func() { s.cfg.snap.AllowWhileReferenced = false }()

		ref := s.catalogFile("listed.pdf", []byte("listed"), 2)
		rec, err := s.service.Queue(s.ctx, ref, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)
		archived, err := s.service.Execute(s.ctx, rec.ID, models.StatusArchivedPublic)
		s.Require().NoError(err)
		s.True(archived.UsageDetected)

		result, err := s.service.Unarchive(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusArchivedDeleted, result.Record.Status)
		s.False(result.Record.UsageDetected)
		s.Equal("alice", result.Record.DeletedBy)
		s.Require().NotNil(result.Record.DeletedDate)
		s.Equal(s.now, *result.Record.DeletedDate)
		s.Nil(result.ReExecuteWarning)

		s.Equal(audit.ActionRecordUnarchived, s.lastEvent().Action)
	})

	s.Run("warns when re-archiving would block", func() {
		rec := s.archived("warned.pdf", []byte("warned"))
		s.catalog.SetReferenceCount(rec.AssetRef, 2)

		result, err := s.service.Unarchive(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusArchivedDeleted, result.Record.Status)
		s.Require().NotNil(result.ReExecuteWarning)
		s.Equal(2, result.ReExecuteWarning.ReferenceCount)
	})

	s.Run("classification facts survive the withdrawal", func() {
		s.cfg.snap.ComplianceDeadline = s.now.Add(-time.Hour)
		defer func() { s.cfg.snap.ComplianceDeadline = s.deadline }()

		rec := s.archived("dated.pdf", []byte("dated"))
		s.True(rec.LateArchive)

		result, err := s.service.Unarchive(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.True(result.Record.LateArchive)
	})

	s.Run("queued record is removed not unarchived", func() {
		rec := s.queued("undrafted.pdf", []byte("undrafted"))
		_, err := s.service.Unarchive(s.ctx, rec.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("already deleted record is terminal", func() {
		rec := s.archived("twicegone.pdf", []byte("twice gone"))
		_, err := s.service.Unarchive(s.ctx, rec.ID)
		s.Require().NoError(err)

		_, err = s.service.Unarchive(s.ctx, rec.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTerminalState))
	})
}

// =============================================================================
// File Deletion Tests
// =============================================================================

// failingContent simulates a storage backend refusing deletes.
type failingContent struct {
	*content.Memory
}

func (f *failingContent) Delete(context.Context, string) error {
	return errors.New("storage offline")
}

func (s *ServiceSuite) TestDeleteFile() {
	s.Run("removes content and keeps advisory flags", func() {
		s.cfg.snap.AllowWhileReferenced = true
		defer func() { s.cfg.snap.AllowWhileReferenced = false }()

		ref := s.catalogFile("purged.pdf", []byte("purged"), 2)
		rec, err := s.service.Queue(s.ctx, ref, models.ReasonLegalOrder, "", "", "")
		s.Require().NoError(err)
		archived, err := s.service.Execute(s.ctx, rec.ID, models.StatusArchivedPublic)
		s.Require().NoError(err)
		s.True(archived.UsageDetected)

		updated, err := s.service.DeleteFile(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusArchivedDeleted, updated.Status)
		s.True(updated.UsageDetected)
		s.Equal(archived.FileChecksum, updated.FileChecksum)
		s.Equal("alice", updated.DeletedBy)

		_, err = s.source.Resolve(s.ctx, "purged.pdf")
		s.True(errors.Is(err, sentinel.ErrNotFound))
		s.Equal(audit.ActionFileDeleted, s.lastEvent().Action)
	})

	s.Run("content failure leaves the record archived", func() {
		rec := s.archived("stuck.pdf", []byte("stuck"))

		svc, err := New(s.records, s.notes, s.recorder, s.catalog, &failingContent{s.source}, s.queue, s.cfg)
		s.Require().NoError(err)

		_, err = svc.DeleteFile(s.ctx, rec.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeResource))
		s.Equal(models.StatusArchivedPublic, s.reload(rec.ID).Status)

		_, err = s.source.Resolve(s.ctx, "stuck.pdf")
		s.NoError(err)
	})

	s.Run("manual record needs no content removal", func() {
		ref := s.externalRef("https://example.org/manual-delete")
		rec, err := s.service.RegisterManual(s.ctx, ref, models.AssetTypeExternal, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)
		_, err = s.service.Execute(s.ctx, rec.ID, models.StatusArchivedPublic)
		s.Require().NoError(err)

		updated, err := s.service.DeleteFile(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusArchivedDeleted, updated.Status)
	})

	s.Run("queued record cannot delete content", func() {
		rec := s.queued("notyet.pdf", []byte("not yet"))
		_, err := s.service.DeleteFile(s.ctx, rec.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}
