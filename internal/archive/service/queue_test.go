package service

import (
	"context"
	"errors"

	"custodia/internal/archive/models"
	"custodia/internal/audit"
	"custodia/internal/directory"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

// =============================================================================
// Queue Tests
// =============================================================================

func (s *ServiceSuite) TestQueue() {
	s.Run("queues a file-based asset with metadata snapshot", func() {
		ref := s.catalogFile("report.pdf", []byte("quarterly numbers"), 0)

		rec, err := s.service.Queue(s.ctx, ref, models.ReasonOutdated, "", "Old quarterly report", "superseded by v2")
		s.Require().NoError(err)
		s.Equal(models.StatusQueued, rec.Status)
		s.Equal(models.AssetTypeDocument, rec.AssetType)
		s.Equal("report.pdf", rec.FileName)
		s.Equal("application/pdf", rec.MimeType)
		s.Equal(int64(len("quarterly numbers")), rec.FileSizeBytes)
		s.Equal("alice", rec.ArchivedBy)
		s.Equal(s.now, rec.CreatedAt)
		s.False(rec.HasChecksum())

		event := s.lastEvent()
		s.Equal(audit.ActionRecordQueued, event.Action)
		s.Equal("alice", event.Actor)
		s.Equal(rec.ID.String(), event.RecordID)
		s.Equal(ref.Key(), event.AssetRef)
		s.Equal("queued", event.Status)
	})

	s.Run("referenced asset queues anyway with a usage note", func() {
		ref := s.catalogFile("cited.pdf", []byte("cited"), 2)

		rec, err := s.service.Queue(s.ctx, ref, models.ReasonSuperseded, "", "", "")
		s.Require().NoError(err)
		s.Equal(models.StatusQueued, rec.Status)

		trail := s.trail(rec.ID)
		s.Require().Len(trail, 1)
		s.Equal("Asset is currently referenced by 2 live item(s).", trail[0].Text)
		s.Equal("alice", trail[0].Author)
	})

	s.Run("audit event carries request metadata", func() {
		ref := s.catalogFile("traced.pdf", []byte("traced"), 0)
		ctx := requestcontext.WithRequestID(s.ctx, "req-7")
		ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.9", "curl/8.4.0")

		_, err := s.service.Queue(ctx, ref, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)

		event := s.lastEvent()
		s.Equal("req-7", event.RequestID)
		s.Equal("curl/8.4.0 from 10.0.0.9", event.Client)
	})

	s.Run("unknown asset returns not found", func() {
		_, err := s.service.Queue(s.ctx, s.managedRef(), models.ReasonOutdated, "", "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("ineligible category is rejected", func() {
		ref := s.managedRef()
		s.catalog.Put(ref, directory.Entry{Category: directory.CategoryImage})

		_, err := s.service.Queue(s.ctx, ref, models.ReasonOutdated, "", "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("page category is redirected to manual registration", func() {
		ref := s.managedRef()
		s.catalog.Put(ref, directory.Entry{Category: directory.CategoryPage})

		_, err := s.service.Queue(s.ctx, ref, models.ReasonOutdated, "", "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "manual registration")
	})

	s.Run("second active record conflicts", func() {
		ref := s.catalogFile("twice.pdf", []byte("twice"), 0)
		_, err := s.service.Queue(s.ctx, ref, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)

		_, err = s.service.Queue(s.ctx, ref, models.ReasonDuplicate, "", "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unarchived record frees the asset for a new queue", func() {
		rec := s.archived("cycle.pdf", []byte("cycle"))
		_, err := s.service.Unarchive(s.ctx, rec.ID)
		s.Require().NoError(err)

		again, err := s.service.Queue(s.ctx, rec.AssetRef, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)
		s.NotEqual(rec.ID, again.ID)
	})

	s.Run("reason other requires detail", func() {
		ref := s.catalogFile("vague.pdf", []byte("vague"), 0)
		_, err := s.service.Queue(s.ctx, ref, models.ReasonOther, "", "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("empty asset reference is rejected", func() {
		_, err := s.service.Queue(s.ctx, id.AssetRef{}, models.ReasonOutdated, "", "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing actor is unauthorized", func() {
		ref := s.catalogFile("anon.pdf", []byte("anon"), 0)
		_, err := s.service.Queue(context.Background(), ref, models.ReasonOutdated, "", "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

// =============================================================================
// Manual Registration Tests
// =============================================================================

func (s *ServiceSuite) TestRegisterManual() {
	s.Run("registers an external resource", func() {
		ref := s.externalRef("https://example.org/old-guide")

		rec, err := s.service.RegisterManual(s.ctx, ref, models.AssetTypeExternal, models.ReasonOutdated, "", "Legacy guide", "")
		s.Require().NoError(err)
		s.Equal(models.StatusQueued, rec.Status)
		s.True(rec.IsManual())
		s.Empty(rec.FileName)
		s.Zero(rec.FileSizeBytes)

		s.Equal(audit.ActionManualRegistered, s.lastEvent().Action)
	})

	s.Run("managed page gets a usage note when referenced", func() {
		ref := s.managedRef()
		s.catalog.Put(ref, directory.Entry{Category: directory.CategoryPage, ReferenceCount: 3})

		rec, err := s.service.RegisterManual(s.ctx, ref, models.AssetTypePage, models.ReasonSuperseded, "", "", "")
		s.Require().NoError(err)

		trail := s.trail(rec.ID)
		s.Require().Len(trail, 1)
		s.Equal("Asset is currently referenced by 3 live item(s).", trail[0].Text)
	})

	s.Run("file-based type is rejected", func() {
		ref := s.externalRef("https://example.org/file")
		_, err := s.service.RegisterManual(s.ctx, ref, models.AssetTypeDocument, models.ReasonOutdated, "", "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("second active record conflicts", func() {
		ref := s.externalRef("https://example.org/twice")
		_, err := s.service.RegisterManual(s.ctx, ref, models.AssetTypeExternal, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)

		_, err = s.service.RegisterManual(s.ctx, ref, models.AssetTypeExternal, models.ReasonDuplicate, "", "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// =============================================================================
// Queue Removal Tests
// =============================================================================

func (s *ServiceSuite) TestRemoveFromQueue() {
	s.Run("removes a queued record outright", func() {
		rec := s.queued("pending.pdf", []byte("pending"))

		err := s.service.RemoveFromQueue(s.ctx, rec.ID)
		s.Require().NoError(err)

		_, err = s.records.FindByID(s.ctx, rec.ID)
		s.True(errors.Is(err, sentinel.ErrNotFound))
		s.Equal(audit.ActionQueueRemoved, s.lastEvent().Action)
	})

	s.Run("archived record cannot be removed", func() {
		rec := s.archived("decided.pdf", []byte("decided"))

		err := s.service.RemoveFromQueue(s.ctx, rec.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("missing record returns not found", func() {
		err := s.service.RemoveFromQueue(s.ctx, id.NewRecordID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
