// Package handler exposes the archive management surface over HTTP. Handlers
// decode and validate the wire shapes, delegate to the archive service, and
// map results and coded errors back onto JSON responses. Business rules live
// in the service; nothing here inspects record state.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custodia/internal/archive/models"
	"custodia/internal/archive/reconcile"
	"custodia/internal/archive/service"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/httputil"
	"custodia/pkg/requestcontext"
)

// Service defines the archive operations the HTTP surface exposes.
type Service interface {
	Queue(ctx context.Context, assetRef id.AssetRef, reason models.Reason, reasonOther, publicDescription, internalNotes string) (*models.ArchiveRecord, error)
	RegisterManual(ctx context.Context, assetRef id.AssetRef, assetType models.AssetType, reason models.Reason, reasonOther, publicDescription, internalNotes string) (*models.ArchiveRecord, error)
	Execute(ctx context.Context, recordID id.RecordID, visibility models.Status) (*models.ArchiveRecord, error)
	ToggleVisibility(ctx context.Context, recordID id.RecordID) (*models.ArchiveRecord, error)
	Unarchive(ctx context.Context, recordID id.RecordID) (*service.UnarchiveResult, error)
	DeleteFile(ctx context.Context, recordID id.RecordID) (*models.ArchiveRecord, error)
	RemoveFromQueue(ctx context.Context, recordID id.RecordID) error
	AddNote(ctx context.Context, recordID id.RecordID, text string) (*models.ArchiveNote, error)
	ListNotes(ctx context.Context, recordID id.RecordID) ([]*models.ArchiveNote, error)
	GetRecord(ctx context.Context, recordID id.RecordID) (*models.ArchiveRecord, error)
	ListRecords(ctx context.Context, filter models.RecordFilter) ([]*models.ArchiveRecord, error)
	DetailReference(ctx context.Context, raw string) (*service.ReferenceDetail, error)
	RunReconciliation(ctx context.Context) (reconcile.Counters, error)
}

// Handler wires archive endpoints to the archive service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an archive handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the management endpoints on the router. The router is
// expected to enforce admin authentication before these run.
func (h *Handler) Register(r chi.Router) {
	r.Route("/archive", func(r chi.Router) {
		r.Post("/records", h.HandleQueue)
		r.Get("/records", h.HandleListRecords)
		r.Post("/records/manual", h.HandleRegisterManual)
		r.Route("/records/{recordID}", func(r chi.Router) {
			r.Get("/", h.HandleGetRecord)
			r.Delete("/", h.HandleRemoveFromQueue)
			r.Post("/execute", h.HandleExecute)
			r.Post("/visibility", h.HandleToggleVisibility)
			r.Post("/unarchive", h.HandleUnarchive)
			r.Delete("/file", h.HandleDeleteFile)
			r.Post("/notes", h.HandleAddNote)
			r.Get("/notes", h.HandleListNotes)
		})
		r.Post("/reconcile", h.HandleReconcile)
	})
}

// RegisterResolve mounts the content-delivery resolve endpoint. It is mounted
// separately so the router can guard it with API-key auth instead of the
// admin bearer token.
func (h *Handler) RegisterResolve(r chi.Router) {
	r.Get("/resolve", h.HandleResolveReference)
}

// HandleQueue handles POST /archive/records requests.
func (h *Handler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[QueueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.Queue(ctx, req.ParsedAssetRef(), req.ParsedReason(),
		req.ReasonOther, req.PublicDescription, req.InternalNotes)
	if err != nil {
		h.logger.ErrorContext(ctx, "archive queue failed",
			"request_id", requestID,
			"asset_ref", req.AssetRef,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "archive record queued",
		"request_id", requestID,
		"record_id", rec.ID,
		"asset_ref", req.AssetRef,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(rec))
}

// HandleRegisterManual handles POST /archive/records/manual requests.
func (h *Handler) HandleRegisterManual(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[RegisterManualRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.RegisterManual(ctx, req.ParsedAssetRef(), req.ParsedAssetType(),
		req.ParsedReason(), req.ReasonOther, req.PublicDescription, req.InternalNotes)
	if err != nil {
		h.logger.ErrorContext(ctx, "manual registration failed",
			"request_id", requestID,
			"asset_ref", req.AssetRef,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "manual record registered",
		"request_id", requestID,
		"record_id", rec.ID,
		"asset_ref", req.AssetRef,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(rec))
}

// HandleListRecords handles GET /archive/records requests. Filtering is
// driven by query parameters: status (comma-separated), asset_type, limit,
// offset.
func (h *Handler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	filter, err := parseRecordFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.service.ListRecords(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "record listing failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecords(records))
}

// HandleGetRecord handles GET /archive/records/{recordID} requests.
func (h *Handler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.GetRecord(ctx, recordID)
	if err != nil {
		h.logger.ErrorContext(ctx, "record fetch failed",
			"request_id", requestID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// HandleExecute handles POST /archive/records/{recordID}/execute requests.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ExecuteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.Execute(ctx, recordID, req.ParsedVisibility())
	if err != nil {
		h.logger.ErrorContext(ctx, "archive execution failed",
			"request_id", requestID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "archive executed",
		"request_id", requestID,
		"record_id", recordID,
		"status", rec.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// HandleToggleVisibility handles POST /archive/records/{recordID}/visibility
// requests. The operation takes no body; it flips public and admin.
func (h *Handler) HandleToggleVisibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.ToggleVisibility(ctx, recordID)
	if err != nil {
		h.logger.ErrorContext(ctx, "visibility toggle failed",
			"request_id", requestID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "visibility toggled",
		"request_id", requestID,
		"record_id", recordID,
		"status", rec.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// HandleUnarchive handles POST /archive/records/{recordID}/unarchive requests.
func (h *Handler) HandleUnarchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Unarchive(ctx, recordID)
	if err != nil {
		h.logger.ErrorContext(ctx, "unarchive failed",
			"request_id", requestID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "record unarchived",
		"request_id", requestID,
		"record_id", recordID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromUnarchiveResult(result))
}

// HandleDeleteFile handles DELETE /archive/records/{recordID}/file requests.
func (h *Handler) HandleDeleteFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.DeleteFile(ctx, recordID)
	if err != nil {
		h.logger.ErrorContext(ctx, "file deletion failed",
			"request_id", requestID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "archived file deleted",
		"request_id", requestID,
		"record_id", recordID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// HandleRemoveFromQueue handles DELETE /archive/records/{recordID} requests.
func (h *Handler) HandleRemoveFromQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveFromQueue(ctx, recordID); err != nil {
		h.logger.ErrorContext(ctx, "queue removal failed",
			"request_id", requestID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "record removed from queue",
		"request_id", requestID,
		"record_id", recordID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.NoContent(w)
}

// HandleAddNote handles POST /archive/records/{recordID}/notes requests.
func (h *Handler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddNoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	note, err := h.service.AddNote(ctx, recordID, req.Text)
	if err != nil {
		h.logger.ErrorContext(ctx, "note creation failed",
			"request_id", requestID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromNote(note))
}

// HandleListNotes handles GET /archive/records/{recordID}/notes requests.
func (h *Handler) HandleListNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}

	notes, err := h.service.ListNotes(ctx, recordID)
	if err != nil {
		h.logger.ErrorContext(ctx, "note listing failed",
			"request_id", requestID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromNotes(notes))
}

// HandleReconcile handles POST /archive/reconcile requests, running a full
// reconciliation sweep and reporting its counters.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	counters, err := h.service.RunReconciliation(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "reconciliation sweep failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "reconciliation sweep completed",
		"request_id", requestID,
		"examined", counters.Examined,
		"updated", counters.Updated,
		"errors", counters.Errors,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, counters)
}

// HandleResolveReference handles GET /resolve?ref=... requests from the
// content-delivery boundary. The answer is always 200 for a well-formed
// reference; routed reports whether the boundary should rewrite the link.
func (h *Handler) HandleResolveReference(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	raw, err := parseResolveRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	detail, err := h.service.DetailReference(ctx, raw)
	if err != nil {
		h.logger.ErrorContext(ctx, "reference resolution failed",
			"request_id", requestID,
			"ref", raw,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromDetail(detail))
}

// recordID parses the record id path parameter, writing the error response
// on failure.
func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (id.RecordID, bool) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.RecordID{}, false
	}
	return recordID, true
}
