package handler

import (
	"time"

	"custodia/internal/archive/models"
	"custodia/internal/archive/service"
	id "custodia/pkg/domain"
)

// RecordResponse is the HTTP representation of an archive record.
type RecordResponse struct {
	ID        id.RecordID `json:"id"`
	AssetRef  string      `json:"asset_ref"`
	AssetType string      `json:"asset_type"`
	Status    string      `json:"status"`

	FileName      string `json:"file_name,omitempty"`
	MimeType      string `json:"mime_type,omitempty"`
	FileSizeBytes int64  `json:"file_size_bytes"`
	IsPrivate     bool   `json:"is_private"`

	Reason            string `json:"reason"`
	ReasonOther       string `json:"reason_other,omitempty"`
	PublicDescription string `json:"public_description,omitempty"`
	InternalNotes     string `json:"internal_notes,omitempty"`

	FileChecksum       string     `json:"file_checksum,omitempty"`
	ClassificationDate *time.Time `json:"classification_date,omitempty"`
	IsLegacy           bool       `json:"is_legacy"`
	LateArchive        bool       `json:"late_archive"`
	PriorVoidExists    bool       `json:"prior_void_exists"`

	UsageDetected        bool `json:"usage_detected"`
	FileMissing          bool `json:"file_missing"`
	IntegrityMismatch    bool `json:"integrity_mismatch"`
	ModifiedAfterArchive bool `json:"modified_after_archive"`

	ArchivedWhileInUse  bool `json:"archived_while_in_use"`
	UsageCountAtArchive int  `json:"usage_count_at_archive"`

	ArchivedBy  string     `json:"archived_by"`
	DeletedDate *time.Time `json:"deleted_date,omitempty"`
	DeletedBy   string     `json:"deleted_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromRecord converts a domain record to its HTTP representation. IsLegacy is
// derived here so the admin UI never re-implements the classification rule.
func FromRecord(rec *models.ArchiveRecord) *RecordResponse {
	return &RecordResponse{
		ID:        rec.ID,
		AssetRef:  rec.AssetRef.Key(),
		AssetType: string(rec.AssetType),
		Status:    string(rec.Status),

		FileName:      rec.FileName,
		MimeType:      rec.MimeType,
		FileSizeBytes: rec.FileSizeBytes,
		IsPrivate:     rec.IsPrivate,

		Reason:            string(rec.Reason),
		ReasonOther:       rec.ReasonOther,
		PublicDescription: rec.PublicDescription,
		InternalNotes:     rec.InternalNotes,

		FileChecksum:       rec.FileChecksum,
		ClassificationDate: rec.ClassificationDate,
		IsLegacy:           rec.IsLegacy(),
		LateArchive:        rec.LateArchive,
		PriorVoidExists:    rec.PriorVoidExists,

		UsageDetected:        rec.UsageDetected,
		FileMissing:          rec.FileMissing,
		IntegrityMismatch:    rec.IntegrityMismatch,
		ModifiedAfterArchive: rec.ModifiedAfterArchive,

		ArchivedWhileInUse:  rec.ArchivedWhileInUse,
		UsageCountAtArchive: rec.UsageCountAtArchive,

		ArchivedBy:  rec.ArchivedBy,
		DeletedDate: rec.DeletedDate,
		DeletedBy:   rec.DeletedBy,

		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// FromRecords converts a record list. The result is never nil so empty
// listings serialize as [] instead of null.
func FromRecords(records []*models.ArchiveRecord) []*RecordResponse {
	out := make([]*RecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec))
	}
	return out
}

// NoteResponse is the HTTP representation of an audit note.
type NoteResponse struct {
	ID        id.NoteID   `json:"id"`
	RecordID  id.RecordID `json:"record_id"`
	Author    string      `json:"author"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
}

// FromNote converts a domain note to its HTTP representation.
func FromNote(note *models.ArchiveNote) *NoteResponse {
	return &NoteResponse{
		ID:        note.ID,
		RecordID:  note.RecordID,
		Author:    note.Author,
		Text:      note.Text,
		CreatedAt: note.CreatedAt,
	}
}

// FromNotes converts a note list, oldest first.
func FromNotes(notes []*models.ArchiveNote) []*NoteResponse {
	out := make([]*NoteResponse, 0, len(notes))
	for _, note := range notes {
		out = append(out, FromNote(note))
	}
	return out
}

// WarningResponse carries a policy warning attached to an otherwise
// successful operation.
type WarningResponse struct {
	ReferenceCount int    `json:"reference_count"`
	Reason         string `json:"reason"`
}

// UnarchiveResponse is the HTTP response for
// POST /archive/records/{recordID}/unarchive.
type UnarchiveResponse struct {
	Record *RecordResponse `json:"record"`

	// ReExecuteWarning is present when the policy gate would block a future
	// re-archive of this asset in its current state.
	ReExecuteWarning *WarningResponse `json:"re_execute_warning,omitempty"`
}

// FromUnarchiveResult converts an unarchive result to its HTTP
// representation.
func FromUnarchiveResult(result *service.UnarchiveResult) *UnarchiveResponse {
	resp := &UnarchiveResponse{Record: FromRecord(result.Record)}
	if result.ReExecuteWarning != nil {
		resp.ReExecuteWarning = &WarningResponse{
			ReferenceCount: result.ReExecuteWarning.ReferenceCount,
			Reason:         result.ReExecuteWarning.Reason,
		}
	}
	return resp
}

// ResolveResponse is the HTTP response for GET /resolve. Routed reports
// whether the delivery boundary should rewrite the reference to the archive;
// the label fields carry the display configuration when it should.
type ResolveResponse struct {
	Routed            bool   `json:"routed"`
	RecordID          string `json:"record_id,omitempty"`
	Status            string `json:"status,omitempty"`
	ShowArchivedLabel bool   `json:"show_archived_label,omitempty"`
	ArchivedLabelText string `json:"archived_label_text,omitempty"`
}

// FromDetail converts a reference detail to the resolve response. A nil
// detail means the reference is left alone.
func FromDetail(detail *service.ReferenceDetail) *ResolveResponse {
	if detail == nil {
		return &ResolveResponse{Routed: false}
	}
	return &ResolveResponse{
		Routed:            true,
		RecordID:          detail.RecordID.String(),
		Status:            string(detail.Status),
		ShowArchivedLabel: detail.ShowArchivedLabel,
		ArchivedLabelText: detail.ArchivedLabelText,
	}
}
