package service

import (
	"context"
	"errors"
	"time"

	"custodia/internal/archive/models"
	"custodia/internal/archive/reconcile"
	"custodia/internal/audit"
	"custodia/internal/directory"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

// reconcilingService wires the real reconciler over the suite's stores.
func (s *ServiceSuite) reconcilingService() *Service {
	rec := reconcile.New(s.records, s.notes, s.catalog, s.source, s.queue,
		reconcile.WithClock(func() time.Time { return s.now }))
	svc, err := New(s.records, s.notes, s.recorder, s.catalog, s.source, s.queue, s.cfg,
		WithReconciler(rec))
	s.Require().NoError(err)
	return svc
}

// erringReconciler fails every pass, standing in for an unreachable catalog.
type erringReconciler struct{}

func (erringReconciler) Reconcile(context.Context, *models.ArchiveRecord) (*models.ArchiveRecord, reconcile.Outcome, error) {
	return nil, reconcile.OutcomeUnchanged, errors.New("catalog offline")
}

func (erringReconciler) RunSweep(context.Context) (reconcile.Counters, error) {
	return reconcile.Counters{}, errors.New("catalog offline")
}

// =============================================================================
// GetRecord Tests
// =============================================================================

func (s *ServiceSuite) TestGetRecord() {
	s.Run("returns the stored record without a reconciler", func() {
		rec := s.archived("plain.pdf", []byte("plain"))

		got, err := s.service.GetRecord(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(rec.ID, got.ID)
		s.Equal(models.StatusArchivedPublic, got.Status)
	})

	s.Run("cooperative pass flags missing content", func() {
		svc := s.reconcilingService()
		rec := s.archived("vanished.pdf", []byte("vanished"))
		s.source.Remove("vanished.pdf")

		got, err := svc.GetRecord(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusArchivedPublic, got.Status)
		s.True(got.FileMissing)
	})

	s.Run("integrity mismatch voids a legacy exemption", func() {
		svc := s.reconcilingService()
		rec := s.archived("tampered.pdf", []byte("original bytes"))
		s.source.Put("tampered.pdf", []byte("rewritten bytes"))

		got, err := svc.GetRecord(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusExemptionVoid, got.Status)
		s.True(got.IntegrityMismatch)

		trail := s.trail(rec.ID)
		s.Require().NotEmpty(trail)
		s.Contains(trail[len(trail)-1].Text, "Integrity check failed")
	})

	s.Run("modified general record is retired", func() {
		s.cfg.snap.ComplianceDeadline = s.now.Add(-time.Hour)
		defer func() { s.cfg.snap.ComplianceDeadline = s.deadline }()

		svc := s.reconcilingService()
		rec := s.archived("drifted.pdf", []byte("first draft"))
		s.Require().True(rec.LateArchive)
		s.source.Put("drifted.pdf", []byte("second draft"))

		got, err := svc.GetRecord(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusArchivedDeleted, got.Status)
		s.Equal(requestcontext.SystemActor, got.DeletedBy)
	})

	s.Run("queued record with vanished file is removed", func() {
		svc := s.reconcilingService()
		rec := s.queued("fleeting.pdf", []byte("fleeting"))
		s.source.Remove("fleeting.pdf")

		_, err := svc.GetRecord(s.ctx, rec.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.records.FindByID(s.ctx, rec.ID)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("failed pass serves the stored state", func() {
		svc, err := New(s.records, s.notes, s.recorder, s.catalog, s.source, s.queue, s.cfg,
			WithReconciler(erringReconciler{}))
		s.Require().NoError(err)
		rec := s.archived("stale.pdf", []byte("stale"))

		got, err := svc.GetRecord(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(rec.ID, got.ID)
	})

	s.Run("missing record returns not found", func() {
		_, err := s.service.GetRecord(s.ctx, id.NewRecordID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// ListRecords Tests
// =============================================================================

func (s *ServiceSuite) TestListRecords() {
	s.Run("filters by status", func() {
		s.queued("waiting.pdf", []byte("waiting"))
		archived := s.archived("resolved.pdf", []byte("resolved"))

		recs, err := s.service.ListRecords(s.ctx, models.RecordFilter{
			Statuses: []models.Status{models.StatusArchivedPublic},
		})
		s.Require().NoError(err)
		s.Require().Len(recs, 1)
		s.Equal(archived.ID, recs[0].ID)
	})

	s.Run("reloads records the pass rewrote", func() {
		svc := s.reconcilingService()
		rec := s.archived("shifting.pdf", []byte("shifting"))
		s.source.Remove("shifting.pdf")

		recs, err := svc.ListRecords(s.ctx, models.RecordFilter{
			Statuses: []models.Status{models.StatusArchivedPublic},
		})
		s.Require().NoError(err)

		var found *models.ArchiveRecord
		for _, r := range recs {
			if r.ID == rec.ID {
				found = r
			}
		}
		s.Require().NotNil(found)
		s.True(found.FileMissing)
	})
}

// =============================================================================
// DetailReference Tests
// =============================================================================

func (s *ServiceSuite) TestDetailReference() {
	s.Run("routes an archived asset with label configuration", func() {
		rec := s.archived("routed.pdf", []byte("routed"))

		detail, err := s.service.DetailReference(s.ctx, rec.AssetRef.Key())
		s.Require().NoError(err)
		s.Require().NotNil(detail)
		s.Equal(rec.ID, detail.RecordID)
		s.Equal(models.StatusArchivedPublic, detail.Status)
		s.True(detail.ShowArchivedLabel)
		s.Equal("Archived", detail.ArchivedLabelText)
	})

	s.Run("passes through when routing is disabled", func() {
		rec := s.archived("dark.pdf", []byte("dark"))
		s.cfg.snap.FeatureEnabled = false
		defer func() { s.cfg.snap.FeatureEnabled = true }()

		detail, err := s.service.DetailReference(s.ctx, rec.AssetRef.Key())
		s.Require().NoError(err)
		s.Nil(detail)
	})

	s.Run("reference switch keeps routing enabled", func() {
		rec := s.archived("fallback.pdf", []byte("fallback"))
		s.cfg.snap.FeatureEnabled = false
		s.cfg.snap.AllowWhileReferenced = true
		defer func() {
			s.cfg.snap.FeatureEnabled = true
			s.cfg.snap.AllowWhileReferenced = false
		}()

		detail, err := s.service.DetailReference(s.ctx, rec.AssetRef.Key())
		s.Require().NoError(err)
		s.NotNil(detail)
	})

	s.Run("queued record passes through", func() {
		rec := s.queued("pending.pdf", []byte("pending"))

		detail, err := s.service.DetailReference(s.ctx, rec.AssetRef.Key())
		s.Require().NoError(err)
		s.Nil(detail)
	})

	s.Run("unknown asset passes through", func() {
		detail, err := s.service.DetailReference(s.ctx, s.managedRef().Key())
		s.Require().NoError(err)
		s.Nil(detail)
	})

	s.Run("withdrawn record passes through", func() {
		rec := s.archived("withdrawn.pdf", []byte("withdrawn"))
		_, err := s.service.Unarchive(s.ctx, rec.ID)
		s.Require().NoError(err)

		detail, err := s.service.DetailReference(s.ctx, rec.AssetRef.Key())
		s.Require().NoError(err)
		s.Nil(detail)
	})

	s.Run("ineligible category passes through", func() {
		rec := s.archived("reclassified.pdf", []byte("reclassified"))
		s.catalog.Put(rec.AssetRef, directory.Entry{Category: directory.CategoryImage})

		detail, err := s.service.DetailReference(s.ctx, rec.AssetRef.Key())
		s.Require().NoError(err)
		s.Nil(detail)
	})

	s.Run("external reference routes when archived", func() {
		ref := s.externalRef("https://example.org/retired-page")
		rec, err := s.service.RegisterManual(s.ctx, ref, models.AssetTypeExternal, models.ReasonOutdated, "", "", "")
		s.Require().NoError(err)
		_, err = s.service.Execute(s.ctx, rec.ID, models.StatusArchivedAdmin)
		s.Require().NoError(err)

		detail, err := s.service.DetailReference(s.ctx, ref.Key())
		s.Require().NoError(err)
		s.Require().NotNil(detail)
		s.Equal(models.StatusArchivedAdmin, detail.Status)
	})

	s.Run("unparseable reference is a validation error", func() {
		_, err := s.service.DetailReference(s.ctx, "bogus")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// RunReconciliation Tests
// =============================================================================

func (s *ServiceSuite) TestRunReconciliation() {
	s.Run("sweeps and reports counters", func() {
		svc := s.reconcilingService()
		s.archived("intact.pdf", []byte("intact"))
		s.archived("lost.pdf", []byte("lost"))
		s.source.Remove("lost.pdf")

		counters, err := svc.RunReconciliation(s.ctx)
		s.Require().NoError(err)
		s.Equal(2, counters.Examined)
		s.Equal(1, counters.Unchanged)
		s.Equal(1, counters.Updated)
		s.Zero(counters.Errors)

		event := s.lastEvent()
		s.Equal(audit.ActionSweepCompleted, event.Action)
		s.Contains(event.Detail, "examined 2")
		s.Equal("alice", event.Actor)
	})

	s.Run("requires an actor", func() {
		svc := s.reconcilingService()
		_, err := svc.RunReconciliation(context.Background())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unavailable without a reconciler", func() {
		_, err := s.service.RunReconciliation(s.ctx)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
