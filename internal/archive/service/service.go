// Package service exposes the archive lifecycle as façade operations. Each
// operation derives its actor and clock from the request context, evaluates
// policy against one immutable configuration snapshot, and leaves a note on
// the record's audit trail.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"

	"custodia/internal/archive/checksum"
	"custodia/internal/archive/classify"
	"custodia/internal/archive/metrics"
	"custodia/internal/archive/models"
	"custodia/internal/archive/policy"
	"custodia/internal/archive/reconcile"
	"custodia/internal/audit"
	"custodia/internal/directory"
	"custodia/internal/platform/config"
	"custodia/pkg/attrs"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/platform/useragent"
	"custodia/pkg/requestcontext"
)

var tracer = otel.Tracer("custodia/internal/archive/service")

// RecordStore is the persistence surface for archive records.
type RecordStore interface {
	CreateIfNoActive(ctx context.Context, rec *models.ArchiveRecord) error
	FindByID(ctx context.Context, recordID id.RecordID) (*models.ArchiveRecord, error)
	FindActiveByAssetRef(ctx context.Context, ref id.AssetRef) (*models.ArchiveRecord, error)
	HasVoidForAssetRef(ctx context.Context, ref id.AssetRef) (bool, error)
	List(ctx context.Context, filter models.RecordFilter) ([]*models.ArchiveRecord, error)
	Execute(ctx context.Context, recordID id.RecordID, validate func(*models.ArchiveRecord) error, mutate func(*models.ArchiveRecord)) (*models.ArchiveRecord, error)
	Delete(ctx context.Context, recordID id.RecordID, validate func(*models.ArchiveRecord) error) error
}

// NoteStore reads a record's append-only note trail. Writes go through the
// audit recorder.
type NoteStore interface {
	ListByRecord(ctx context.Context, recordID id.RecordID) ([]*models.ArchiveNote, error)
}

// AuditRecorder writes operation notes and emits structured audit events.
type AuditRecorder interface {
	Note(ctx context.Context, recordID id.RecordID, text, author string) (*models.ArchiveNote, error)
	Emit(ctx context.Context, event audit.Event) error
}

// AssetDirectory is the platform catalog assets are classified from.
type AssetDirectory interface {
	Lookup(ctx context.Context, ref id.AssetRef) (directory.Entry, error)
}

// ContentStore resolves and removes the physical content behind file-based
// records.
type ContentStore interface {
	Resolve(ctx context.Context, fileName string) (io.ReadCloser, error)
	Delete(ctx context.Context, fileName string) error
}

// WorkQueue defers checksum computation for oversized files.
type WorkQueue interface {
	Enqueue(ctx context.Context, recordID id.RecordID) error
}

// Reconciler realigns records with their backing content. Wired via
// WithReconciler; without one, management reads skip the cooperative pass and
// RunReconciliation is unavailable.
type Reconciler interface {
	Reconcile(ctx context.Context, rec *models.ArchiveRecord) (*models.ArchiveRecord, reconcile.Outcome, error)
	RunSweep(ctx context.Context) (reconcile.Counters, error)
}

// Service orchestrates the archive record lifecycle.
type Service struct {
	records    RecordStore
	notes      NoteStore
	recorder   AuditRecorder
	catalog    AssetDirectory
	content    ContentStore
	queue      WorkQueue
	config     config.Provider
	engine     *checksum.Engine
	classifier *classify.Engine
	reconciler Reconciler
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithReconciler(r Reconciler) Option {
	return func(s *Service) {
		s.reconciler = r
	}
}

// New constructs a Service. All six collaborators are required; the checksum
// engine and classifier are derived from them.
func New(
	records RecordStore,
	notes NoteStore,
	recorder AuditRecorder,
	catalog AssetDirectory,
	content ContentStore,
	queue WorkQueue,
	cfg config.Provider,
	opts ...Option,
) (*Service, error) {
	if records == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "record store is required")
	}
	if notes == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "note store is required")
	}
	if recorder == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "audit recorder is required")
	}
	if catalog == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "asset directory is required")
	}
	if content == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "content store is required")
	}
	if queue == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "work queue is required")
	}
	if cfg == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "config provider is required")
	}

	s := &Service{
		records:    records,
		notes:      notes,
		recorder:   recorder,
		catalog:    catalog,
		content:    content,
		queue:      queue,
		config:     cfg,
		engine:     checksum.NewEngine(content),
		classifier: classify.NewEngine(records),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// requireActor returns the authenticated actor or rejects the operation.
// Compliance decisions are always attributed to someone.
func requireActor(ctx context.Context) (string, error) {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "no actor in request context")
	}
	return actor, nil
}

// lookupReferenceCount reads the asset's live reference count. An asset the
// directory no longer knows has no references.
func (s *Service) lookupReferenceCount(ctx context.Context, ref id.AssetRef) (int, error) {
	entry, err := s.catalog.Lookup(ctx, ref)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, nil
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up asset usage")
	}
	return entry.ReferenceCount, nil
}

// policyBlocked builds the gate-refusal error carrying the reference count
// and human reason.
func policyBlocked(b *policy.Block) *dErrors.Error {
	return dErrors.New(dErrors.CodePolicyBlocked, b.Reason).
		WithDetail("reference_count", b.ReferenceCount).
		WithDetail("reason", b.Reason)
}

// logAudit logs an audit event and forwards it to the recorder's stream.
// Stream failures never fail the operation that already happened.
func (s *Service) logAudit(ctx context.Context, action audit.Action, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(action), "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action), args...)
	}
	_ = s.recorder.Emit(ctx, audit.Event{
		Action:   action,
		Actor:    requestcontext.ActorOrSystem(ctx),
		RecordID: attrs.ExtractString(attributes, "record_id"),
		AssetRef: attrs.ExtractString(attributes, "asset_ref"),
		Status:   attrs.ExtractString(attributes, "status"),
		Detail:   attrs.ExtractString(attributes, "detail"),
		Client:   clientDescription(ctx),
	})
}

// clientDescription renders the acting client for the audit stream. Empty for
// operations that did not arrive over HTTP.
func clientDescription(ctx context.Context) string {
	ip := requestcontext.ClientIP(ctx)
	agent := requestcontext.UserAgent(ctx)
	if ip == "" && agent == "" {
		return ""
	}
	desc := useragent.Describe(agent)
	if ip == "" {
		return desc
	}
	return desc + " from " + ip
}

// note appends an operation note. The transition already committed, so a
// failed note is logged and the operation still reports success.
func (s *Service) note(ctx context.Context, recordID id.RecordID, text, author string) {
	if _, err := s.recorder.Note(ctx, recordID, text, author); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to append operation note",
			"record_id", recordID,
			"error", err,
		)
	}
}

func (s *Service) incrementOperation(operation, result string) {
	if s.metrics != nil {
		s.metrics.IncrementOperation(operation, result)
	}
}

func (s *Service) incrementTransition(to models.Status) {
	if s.metrics != nil {
		s.metrics.IncrementTransition(string(to))
	}
}

func (s *Service) incrementPolicyBlock() {
	if s.metrics != nil {
		s.metrics.IncrementPolicyBlock()
	}
}

func (s *Service) incrementChecksumDeferral() {
	if s.metrics != nil {
		s.metrics.IncrementChecksumDeferral()
	}
}

func (s *Service) incrementReconcileRun(surface string) {
	if s.metrics != nil {
		s.metrics.IncrementReconcileRun(surface)
	}
}
