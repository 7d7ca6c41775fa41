// Package reconcile realigns archive records with the content and catalog
// state they describe. The procedure is idempotent: every pass recomputes the
// operational advisory flags from scratch and writes only when something
// changed, so repeated passes over an unchanged world are silent.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"custodia/internal/archive/checksum"
	"custodia/internal/archive/metrics"
	"custodia/internal/archive/models"
	"custodia/internal/directory"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

var tracer = otel.Tracer("custodia/internal/archive/reconcile")

// errOutOfDate aborts a write when the record changed between inspection and
// the store callback. The next pass sees the new state.
var errOutOfDate = errors.New("record changed since inspection")

// Outcome summarizes what one reconciliation pass did to a record.
type Outcome string

const (
	OutcomeSkipped      Outcome = "skipped"
	OutcomeUnchanged    Outcome = "unchanged"
	OutcomeUpdated      Outcome = "updated"
	OutcomeQueueRemoved Outcome = "queue_removed"
	OutcomeVoided       Outcome = "voided"
	OutcomeFileDeleted  Outcome = "file_deleted"
)

// Counters accumulates sweep statistics. Each sweep owns its own value;
// nothing here is global.
type Counters struct {
	Examined         int `json:"examined"`
	Skipped          int `json:"skipped"`
	Unchanged        int `json:"unchanged"`
	Updated          int `json:"updated"`
	QueueRemoved     int `json:"queue_removed"`
	ExemptionsVoided int `json:"exemptions_voided"`
	FilesDeleted     int `json:"files_deleted"`
	Errors           int `json:"errors"`
}

func (c *Counters) observe(outcome Outcome, err error) {
	c.Examined++
	if err != nil {
		c.Errors++
		return
	}
	switch outcome {
	case OutcomeSkipped:
		c.Skipped++
	case OutcomeUnchanged:
		c.Unchanged++
	case OutcomeUpdated:
		c.Updated++
	case OutcomeQueueRemoved:
		c.QueueRemoved++
	case OutcomeVoided:
		c.ExemptionsVoided++
	case OutcomeFileDeleted:
		c.FilesDeleted++
	}
}

// RecordStore is the record persistence surface reconciliation needs.
type RecordStore interface {
	List(ctx context.Context, filter models.RecordFilter) ([]*models.ArchiveRecord, error)
	Execute(ctx context.Context, recordID id.RecordID, validate func(*models.ArchiveRecord) error, mutate func(*models.ArchiveRecord)) (*models.ArchiveRecord, error)
	Delete(ctx context.Context, recordID id.RecordID, validate func(*models.ArchiveRecord) error) error
}

// NoteStore receives the audit notes reconciliation writes on transitions.
type NoteStore interface {
	Append(ctx context.Context, note *models.ArchiveNote) error
}

// Enqueuer re-enqueues deferred checksum work for records whose digest never
// landed.
type Enqueuer interface {
	Enqueue(ctx context.Context, recordID id.RecordID) error
}

// Reconciler runs the per-record procedure and the whole-store sweep.
type Reconciler struct {
	records RecordStore
	notes   NoteStore
	catalog directory.AssetDirectory
	source  checksum.Source
	engine  *checksum.Engine
	queue   Enqueuer

	logger      *slog.Logger
	metrics     *metrics.Metrics
	clock       func() time.Time
	parallelism int

	mu       sync.Mutex
	sweeping bool
}

// Option configures optional Reconciler dependencies.
type Option func(r *Reconciler)

// WithLogger sets the reconciler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithMetrics enables reconciliation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// WithClock sets the time source for transition stamps.
func WithClock(clock func() time.Time) Option {
	return func(r *Reconciler) {
		r.clock = clock
	}
}

// WithParallelism bounds concurrent record inspections during a sweep.
func WithParallelism(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

func New(records RecordStore, notes NoteStore, catalog directory.AssetDirectory, source checksum.Source, queue Enqueuer, opts ...Option) *Reconciler {
	r := &Reconciler{
		records:     records,
		notes:       notes,
		catalog:     catalog,
		source:      source,
		engine:      checksum.NewEngine(source),
		queue:       queue,
		logger:      slog.Default(),
		clock:       time.Now,
		parallelism: 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile runs one pass over a single record and returns the refreshed
// record. The returned record is nil when the pass removed it from the queue.
func (r *Reconciler) Reconcile(ctx context.Context, rec *models.ArchiveRecord) (*models.ArchiveRecord, Outcome, error) {
	if rec.Status.IsTerminal() {
		return rec, OutcomeSkipped, nil
	}

	switch {
	case rec.Status == models.StatusQueued:
		return r.reconcileQueued(ctx, rec)
	case rec.IsManual():
		return r.reconcileManual(ctx, rec)
	default:
		return r.reconcileArchived(ctx, rec)
	}
}

// reconcileQueued re-checks a pending record. A queued entry whose file is
// gone never became a compliance decision, so it is removed outright.
func (r *Reconciler) reconcileQueued(ctx context.Context, rec *models.ArchiveRecord) (*models.ArchiveRecord, Outcome, error) {
	if rec.AssetType.IsFileBased() {
		exists, err := r.contentExists(ctx, rec.FileName)
		if err != nil {
			return rec, OutcomeUnchanged, fmt.Errorf("probe queued content: %w", err)
		}
		if !exists {
			err := r.records.Delete(ctx, rec.ID, func(cur *models.ArchiveRecord) error {
				return cur.CanRemoveFromQueue()
			})
			if err != nil {
				return rec, OutcomeUnchanged, fmt.Errorf("remove queued record: %w", err)
			}
			r.metrics.IncrementReconcileIssue("queued_file_missing")
			r.logger.Info("removed queued record with missing file",
				"record_id", rec.ID, "file_name", rec.FileName)
			return nil, OutcomeQueueRemoved, nil
		}
	}

	refCount, _, err := r.lookupUsage(ctx, rec.AssetRef)
	if err != nil {
		return rec, OutcomeUnchanged, err
	}
	return r.applyInspection(ctx, rec, models.Inspection{UsageDetected: refCount > 0})
}

// reconcileArchived verifies an archived file-based record against its
// content and usage.
func (r *Reconciler) reconcileArchived(ctx context.Context, rec *models.ArchiveRecord) (*models.ArchiveRecord, Outcome, error) {
	refCount, _, err := r.lookupUsage(ctx, rec.AssetRef)
	if err != nil {
		return rec, OutcomeUnchanged, err
	}
	ins := models.Inspection{UsageDetected: refCount > 0}

	if !rec.HasChecksum() {
		exists, err := r.contentExists(ctx, rec.FileName)
		if err != nil {
			return rec, OutcomeUnchanged, fmt.Errorf("probe archived content: %w", err)
		}
		if !exists {
			ins.FileMissing = true
			r.metrics.IncrementReconcileIssue("file_missing")
			return r.applyInspection(ctx, rec, ins)
		}
		// The deferred digest never landed; give the queue another shot.
		if err := r.queue.Enqueue(ctx, rec.ID); err != nil {
			r.logger.Warn("re-enqueue checksum work", "record_id", rec.ID, "error", err)
		}
		return r.applyInspection(ctx, rec, ins)
	}

	sum, err := r.engine.Calculate(ctx, rec)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		ins.FileMissing = true
		r.metrics.IncrementReconcileIssue("file_missing")
		return r.applyInspection(ctx, rec, ins)
	case err != nil:
		return rec, OutcomeUnchanged, fmt.Errorf("verify archived content: %w", err)
	case sum == rec.FileChecksum:
		return r.applyInspection(ctx, rec, ins)
	}

	// The archived bytes no longer match the recorded digest.
	ins.IntegrityMismatch = true
	r.metrics.IncrementReconcileIssue("integrity_mismatch")
	if rec.IsLegacy() {
		return r.voidExemption(ctx, rec, ins)
	}
	return r.deleteForModification(ctx, rec, ins)
}

// reconcileManual re-checks a manual entry. There is no file to verify; the
// catalog's modification stamp stands in for integrity.
func (r *Reconciler) reconcileManual(ctx context.Context, rec *models.ArchiveRecord) (*models.ArchiveRecord, Outcome, error) {
	refCount, modifiedAt, err := r.lookupUsage(ctx, rec.AssetRef)
	if err != nil {
		return rec, OutcomeUnchanged, err
	}

	ins := models.Inspection{UsageDetected: refCount > 0}
	if rec.IsClassified() && !modifiedAt.IsZero() && modifiedAt.After(*rec.ClassificationDate) {
		ins.ModifiedAfterArchive = true
		r.metrics.IncrementReconcileIssue("modified_after_archive")
	}
	return r.applyInspection(ctx, rec, ins)
}

// voidExemption retires a Legacy record whose content changed. The exemption
// rested on the content staying what it was.
func (r *Reconciler) voidExemption(ctx context.Context, rec *models.ArchiveRecord, ins models.Inspection) (*models.ArchiveRecord, Outcome, error) {
	now := r.clock()
	statusAtInspection := rec.Status

	updated, err := r.records.Execute(ctx, rec.ID,
		func(cur *models.ArchiveRecord) error {
			if cur.Status != statusAtInspection {
				return errOutOfDate
			}
			return cur.CanVoidExemption()
		},
		func(cur *models.ArchiveRecord) {
			cur.ApplyInspection(ins, now)
			cur.ApplyExemptionVoid(now)
		})
	if errors.Is(err, errOutOfDate) {
		return rec, OutcomeUnchanged, nil
	}
	if err != nil {
		return rec, OutcomeUnchanged, fmt.Errorf("void exemption: %w", err)
	}

	r.appendNote(ctx, updated.ID,
		"Integrity check failed: the archived content no longer matches its recorded checksum. The legacy exemption is void.")
	if updated.ArchivedWhileInUse {
		r.appendNote(ctx, updated.ID,
			"The asset was archived while still referenced; with the exemption void, those references resolve to the live asset again.")
	}
	r.logger.Info("voided legacy exemption",
		"record_id", updated.ID, "asset_ref", updated.AssetRef)
	return updated, OutcomeVoided, nil
}

// deleteForModification retires a General record whose content changed.
func (r *Reconciler) deleteForModification(ctx context.Context, rec *models.ArchiveRecord, ins models.Inspection) (*models.ArchiveRecord, Outcome, error) {
	now := r.clock()
	statusAtInspection := rec.Status

	updated, err := r.records.Execute(ctx, rec.ID,
		func(cur *models.ArchiveRecord) error {
			if cur.Status != statusAtInspection {
				return errOutOfDate
			}
			return cur.CanDeleteFile()
		},
		func(cur *models.ArchiveRecord) {
			cur.ApplyInspection(ins, now)
			cur.ApplyFileDeletion(requestcontext.SystemActor, now)
		})
	if errors.Is(err, errOutOfDate) {
		return rec, OutcomeUnchanged, nil
	}
	if err != nil {
		return rec, OutcomeUnchanged, fmt.Errorf("retire modified record: %w", err)
	}

	r.appendNote(ctx, updated.ID,
		"Integrity check failed: the archived content was modified after classification. The archive entry is marked deleted.")
	r.logger.Info("retired modified general record",
		"record_id", updated.ID, "asset_ref", updated.AssetRef)
	return updated, OutcomeFileDeleted, nil
}

// applyInspection writes the recomputed advisory flags, skipping the write
// when the record already reflects them.
func (r *Reconciler) applyInspection(ctx context.Context, rec *models.ArchiveRecord, ins models.Inspection) (*models.ArchiveRecord, Outcome, error) {
	if !rec.InspectionChanged(ins) {
		return rec, OutcomeUnchanged, nil
	}

	now := r.clock()
	statusAtInspection := rec.Status

	updated, err := r.records.Execute(ctx, rec.ID,
		func(cur *models.ArchiveRecord) error {
			if cur.Status != statusAtInspection {
				return errOutOfDate
			}
			return nil
		},
		func(cur *models.ArchiveRecord) {
			cur.ApplyInspection(ins, now)
		})
	if errors.Is(err, errOutOfDate) {
		return rec, OutcomeUnchanged, nil
	}
	if err != nil {
		return rec, OutcomeUnchanged, fmt.Errorf("update advisory flags: %w", err)
	}
	return updated, OutcomeUpdated, nil
}

// lookupUsage reads the catalog entry. A missing catalog entry is not an
// error: the asset simply has no live references anymore.
func (r *Reconciler) lookupUsage(ctx context.Context, ref id.AssetRef) (int, time.Time, error) {
	entry, err := r.catalog.Lookup(ctx, ref)
	if errors.Is(err, sentinel.ErrNotFound) {
		return 0, time.Time{}, nil
	}
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("catalog lookup: %w", err)
	}
	return entry.ReferenceCount, entry.ModifiedAt, nil
}

func (r *Reconciler) contentExists(ctx context.Context, fileName string) (bool, error) {
	rc, err := r.source.Resolve(ctx, fileName)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if closeErr := rc.Close(); closeErr != nil {
		r.logger.Warn("close content probe", "file_name", fileName, "error", closeErr)
	}
	return true, nil
}

func (r *Reconciler) appendNote(ctx context.Context, recordID id.RecordID, text string) {
	note, err := models.NewNote(id.NewNoteID(), recordID, requestcontext.SystemActor, text, r.clock())
	if err != nil {
		r.logger.Warn("build reconcile note", "record_id", recordID, "error", err)
		return
	}
	if err := r.notes.Append(ctx, note); err != nil {
		r.logger.Warn("append reconcile note", "record_id", recordID, "error", err)
	}
}
